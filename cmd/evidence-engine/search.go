// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/pipeline"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <drug> [indication]",
	Short: "Search literature sources for candidate studies",
	Long: `Search queries the configured literature sources (PubMed, Semantic
Scholar, Europe PMC, bioRxiv) for studies matching a drug and optional
indication. Results are deduplicated across sources by identifier or
normalized title.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	addSourceFlags(searchCmd)
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := sources.Query{Drug: args[0]}
	if len(args) > 1 {
		q.Indication = args[1]
	}

	cfg := types.PipelineConfig{Sources: sourcesConfigFromFlags(cmd)}
	p := pipeline.New(cfg)

	out := sources.Search(cmd.Context(), q, p.Backends, cfg.Sources, os.Stderr)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return sources.FormatJSON(out, os.Stdout)
	}
	sources.FormatTable(out, os.Stdout)
	return nil
}
