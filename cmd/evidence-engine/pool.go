// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/pool"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var poolCmd = &cobra.Command{
	Use:   "pool <studies-file>",
	Short: "Pool per-study rates into a single estimate",
	Long: `Pool reads a study list from a YAML or JSON file and computes the
inverse-variance pooled non-response estimate with its confidence interval,
heterogeneity classification, and quality grade.`,
	Args: cobra.ExactArgs(1),
	RunE: runPool,
}

func init() {
	poolCmd.Flags().Bool("json", false, "output the estimate as JSON")

	rootCmd.AddCommand(poolCmd)
}

func runPool(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading studies file: %w", err)
	}

	var studies []*types.Study
	if strings.HasSuffix(args[0], ".json") {
		err = json.Unmarshal(data, &studies)
	} else {
		err = yaml.Unmarshal(data, &studies)
	}
	if err != nil {
		return fmt.Errorf("parsing studies file: %w", err)
	}

	est := pool.Pool(studies)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	}

	if !est.HasData() {
		fmt.Printf("No pooled estimate: %s\n", est.Message)
		return nil
	}
	fmt.Printf("Pooled non-response rate: %.1f%% (95%% CI %.1f%%-%.1f%%) from %d studies\n",
		est.Rate*100, est.CILower*100, est.CIUpper*100, est.NStudies)
	if est.Heterogeneity.Level != types.HeterogeneityNA {
		fmt.Printf("Heterogeneity: %s (CV=%.2f, variance ratio=%.1f%%)\n",
			est.Heterogeneity.Level, est.Heterogeneity.CV, est.Heterogeneity.VarianceRatio)
	}
	fmt.Printf("Evidence quality: %s (score %.1f/%.0f)\n",
		est.Quality.Level, est.Quality.Score, est.Quality.MaxScore)
	return nil
}
