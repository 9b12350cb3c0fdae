package main

import (
	"github.com/spf13/cobra"
)

var standardsFilter struct {
	category string
	severity string
	asJSON   bool
}

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Browse the safety standards reference",
}

var standardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List standards, optionally filtered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ref, err := loadStandards()
		if err != nil {
			return err
		}
		list := ref.Search(standardsFilter.category, standardsFilter.severity)
		if standardsFilter.asJSON {
			return printJSON(cmd.OutOrStdout(), list)
		}
		return printStandards(cmd.OutOrStdout(), list)
	},
}

var standardsShowCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "Show one standard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := loadStandards()
		if err != nil {
			return err
		}
		s, err := ref.Get(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s)
	},
}

func init() {
	f := standardsListCmd.Flags()
	f.StringVar(&standardsFilter.category, "category", "", "category filter, e.g. PPE")
	f.StringVar(&standardsFilter.severity, "severity", "", "severity filter: CRITICAL, HIGH or MEDIUM")
	f.BoolVar(&standardsFilter.asJSON, "json", false, "print JSON")
	standardsCmd.AddCommand(standardsListCmd, standardsShowCmd)
	rootCmd.AddCommand(standardsCmd)
}
