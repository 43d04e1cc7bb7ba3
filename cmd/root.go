// Package cmd implements the ragnova command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagUser  string
	flagKB    string
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "ragnova",
	Short: "Ragnova - ask questions against your own documents",
	Long: `Ragnova ingests documents and web pages into per-user knowledge bases
and answers questions grounded in that content.

Typical flow:

  ragnova ingest report.pdf
  ragnova ingest https://example.com/docs --depth 2
  ragnova ask "what does the report say about Q3"
  ragnova documents
  ragnova serve`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "knowledge base owner (default $RAGNOVA_USER or \"default\")")
	rootCmd.PersistentFlags().StringVar(&flagKB, "kb", "default", "knowledge base name")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}
