package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
)

var scoreJSON bool

var scoreCmd = &cobra.Command{
	Use:   "score [FILE]",
	Short: "Score an analysis JSON document (stdin when FILE is - or missing)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		res, err := readAnalysis(in)
		if err != nil {
			return err
		}
		rep, err := analysis.BuildReport(res, cfg.Rounding())
		if err != nil {
			return err
		}
		if scoreJSON {
			return printJSON(cmd.OutOrStdout(), rep)
		}
		return printReport(cmd.OutOrStdout(), rep)
	},
}

func readAnalysis(r io.Reader) (*analysis.Result, error) {
	var res analysis.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("invalid analysis JSON: %w", err)
	}
	return &res, nil
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(scoreCmd)
}
