// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Key names the pipeline looks up.
const (
	KeyNCBI            = "ncbi-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyUnpaywallEmail  = "unpaywall-email"
)

// Store maps secret key names to their values.
type Store map[string]string

// Load reads all files in dir and returns a Store of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty Store.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			store[name] = value
		}
	}

	return store, nil
}

// Get returns override when it is non-empty, otherwise the stored value for
// key. Flag values take precedence over the secrets directory this way.
func (s Store) Get(key, override string) string {
	if override != "" {
		return override
	}
	return s[key]
}

// Keys returns the loaded key names in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
