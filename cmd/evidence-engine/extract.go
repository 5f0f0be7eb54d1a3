// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract efficacy metrics from study text",
	Long: `Extract runs the pattern families over a text file (or stdin when no
file is given) and prints the recovered metrics: response rate, non-response
rate, sample size, p-value, and genotype subgroups.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("title", "", "study title for extraction context")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var text []byte
	var err error
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	} else {
		text, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	}

	title, _ := cmd.Flags().GetString("title")
	result := extract.Extract(string(text), title)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
