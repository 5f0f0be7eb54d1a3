// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the evidence-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/internal/secrets"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout     = 30 * time.Second
	defaultDelay       = 350 * time.Millisecond
	defaultUserAgent   = "evidence-engine/0.1"
	defaultSourceLimit = 10
	defaultMergedLimit = 15
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the evidence-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "evidence-engine",
	Short: "Biomedical literature evidence extraction and pooling",
	Long: `evidence-engine aggregates biomedical literature for a drug/indication
pair, extracts efficacy statistics from study text, and pools them into a
single estimate with confidence bounds.

Each pipeline stage is a subcommand: search queries the literature sources,
resolve fetches full article text, extract pulls metrics from text, and pool
computes the combined estimate. The evidence subcommand runs the whole
pipeline end to end.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./evidence-engine.yaml or ~/.config/evidence-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("evidence-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "evidence-engine"))
		}
	}

	viper.SetEnvPrefix("EVIDENCE_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Precedence for every setting: command-line flag, then config file (viper
// key named after the flag), then the built-in default.

func configDuration(cmd *cobra.Command, name string, fallback time.Duration) time.Duration {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetDuration(name)
	}
	if v, _ := cmd.Flags().GetDuration(name); v != 0 {
		return v
	}
	return fallback
}

func configInt(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetInt(name)
	}
	if v, _ := cmd.Flags().GetInt(name); v != 0 {
		return v
	}
	return fallback
}

func configBool(cmd *cobra.Command, name string) bool {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetBool(name)
	}
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func configString(cmd *cobra.Command, name string) string {
	if !cmd.Flags().Changed(name) && viper.IsSet(name) {
		return viper.GetString(name)
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

// sourcesConfigFromFlags assembles the source-search config shared by the
// search and evidence commands.
func sourcesConfigFromFlags(cmd *cobra.Command) types.SourcesConfig {
	ncbiKey := configString(cmd, "ncbi-api-key")
	s2Key := configString(cmd, "semantic-scholar-api-key")

	return types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   configDuration(cmd, "timeout", defaultTimeout),
			UserAgent: defaultUserAgent,
		},
		PerSourceLimit:        configInt(cmd, "per-source-limit", defaultSourceLimit),
		MaxStudies:            configInt(cmd, "max-studies", defaultMergedLimit),
		MinRequestDelay:       configDuration(cmd, "delay", defaultDelay),
		NCBIAPIKey:            loadedSecrets.Get(secrets.KeyNCBI, ncbiKey),
		SemanticScholarAPIKey: loadedSecrets.Get(secrets.KeySemanticScholar, s2Key),
		EnableSemanticScholar: configBool(cmd, "semantic-scholar"),
		EnableEuropePMC:       configBool(cmd, "europe-pmc"),
		EnableBioRxiv:         configBool(cmd, "biorxiv"),
	}
}

// addSourceFlags registers the source-search flags shared by the search
// and evidence commands.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().Duration("delay", 0, "minimum delay between requests per host (default 350ms)")
	cmd.Flags().Int("per-source-limit", defaultSourceLimit, "maximum results per source")
	cmd.Flags().Int("max-studies", defaultMergedLimit, "maximum merged studies after dedup")
	cmd.Flags().Bool("semantic-scholar", true, "query Semantic Scholar")
	cmd.Flags().Bool("europe-pmc", true, "query Europe PMC")
	cmd.Flags().Bool("biorxiv", false, "query bioRxiv preprints")
	cmd.Flags().String("ncbi-api-key", "", "NCBI E-utilities API key (default from .secrets/)")
	cmd.Flags().String("semantic-scholar-api-key", "", "Semantic Scholar API key (default from .secrets/)")
}

// fullTextConfigFromFlags assembles the full-text resolution config.
func fullTextConfigFromFlags(cmd *cobra.Command) types.FullTextConfig {
	email := configString(cmd, "unpaywall-email")

	return types.FullTextConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   configDuration(cmd, "timeout", defaultTimeout),
			UserAgent: defaultUserAgent,
		},
		UnpaywallEmail: loadedSecrets.Get(secrets.KeyUnpaywallEmail, email),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
