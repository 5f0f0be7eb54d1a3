// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/pipeline"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence <drug> <indication>",
	Short: "Run the full evidence pipeline for a drug/indication pair",
	Long: `Evidence runs the whole pipeline: searches the literature sources,
resolves full text, extracts efficacy metrics, and pools them into a single
non-response estimate with confidence bounds, heterogeneity, and quality.`,
	Args: cobra.ExactArgs(2),
	RunE: runEvidence,
}

func init() {
	addSourceFlags(evidenceCmd)
	evidenceCmd.Flags().String("unpaywall-email", "", "contact email for Unpaywall lookups (default from .secrets/)")
	evidenceCmd.Flags().Bool("json", false, "output the evidence bundle as JSON")
	evidenceCmd.Flags().Bool("yaml", false, "output the evidence bundle as YAML")

	rootCmd.AddCommand(evidenceCmd)
}

func runEvidence(cmd *cobra.Command, args []string) error {
	cfg := types.PipelineConfig{
		Sources:  sourcesConfigFromFlags(cmd),
		FullText: fullTextConfigFromFlags(cmd),
	}

	p := pipeline.New(cfg)
	bundle := p.Run(cmd.Context(), args[0], args[1], os.Stderr)

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	case asYAML:
		out, err := yaml.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("marshaling bundle: %w", err)
		}
		fmt.Print(string(out))
		return nil
	default:
		pipeline.FormatReport(bundle, os.Stdout)
		return nil
	}
}
