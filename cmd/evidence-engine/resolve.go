// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/fulltext"
	"github.com/pdiddy/evidence-engine/internal/ratelimit"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <pmid-or-doi>...",
	Short: "Resolve full article text for study identifiers",
	Long: `Resolve tries the full-text backends for each identifier: PMC by
converted PMC ID, Europe PMC by PMID, and Unpaywall by DOI (link only).
For each study it reports where text came from and how much was captured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	resolveCmd.Flags().Duration("delay", 0, "minimum delay between requests per host (default 350ms)")
	resolveCmd.Flags().String("unpaywall-email", "", "contact email for Unpaywall lookups (default from .secrets/)")
	resolveCmd.Flags().Bool("dump", false, "print the resolved text to stdout")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := fullTextConfigFromFlags(cmd)
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}

	r := &fulltext.Resolver{
		Client:  &http.Client{Timeout: cfg.Timeout},
		Limiter: ratelimit.New(delay),
		Config:  cfg,
	}
	dump, _ := cmd.Flags().GetBool("dump")

	for _, id := range args {
		s := &types.Study{ID: id}
		if !isNumeric(id) {
			// Treat non-PMID identifiers as DOIs for the Unpaywall route.
			s.ID, s.DOI = "", id
		}

		r.Resolve(cmd.Context(), s, os.Stderr)

		switch s.FullTextProvenance {
		case types.FullTextUnavailable:
			fmt.Printf("%s: no full text available\n", id)
		case types.FullTextUnpaywall:
			fmt.Printf("%s: open-access link %s\n", id, s.FullTextURL)
		default:
			fmt.Printf("%s: %d chars, %d tables via %s\n",
				id, len(s.FullText), len(s.Tables), s.FullTextProvenance)
		}
		if dump && s.FullText != "" {
			fmt.Println(s.FullText)
		}
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
