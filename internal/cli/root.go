// Package cli defines the tugboat-mcp command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tugboatqa/tugboat-mcp/internal/app"
	"github.com/tugboatqa/tugboat-mcp/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tugboat-mcp",
	Short: "MCP server for the Tugboat preview platform",
	Long: `tugboat-mcp exposes the Tugboat API as MCP tools and resources so that
AI assistants can inspect and operate preview environments.

Configuration is read from TUGBOAT_-prefixed environment variables
(TUGBOAT_API_KEY is required). Running the bare command starts the server
on the configured transport, stdio by default.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on the configured transport",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("tugboat-mcp %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildDate)
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
