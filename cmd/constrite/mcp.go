package main

import (
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/constrite/internal/infra/mcpserver"
)

// stdout carries the protocol, so logs stay on stderr.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the risk scoring and standards tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ref, err := loadStandards()
		if err != nil {
			return err
		}
		return mcpserver.Serve(cmd.Context(), mcpserver.New(version, ref, cfg.Rounding()))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
