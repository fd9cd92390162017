// Package main provides the entry point for the crawlytics CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for crawlytics.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawlytics",
		Short: "Crawl log metrics and distribution analyzer",
		Long: `Crawlytics analyzes crawler output logs.

It extracts per-page metrics (payload size, outbound links, images) from
line-oriented crawl logs, optionally resolves image byte sizes over HTTP,
and reports metric distributions as histograms in text, JSON, Markdown,
or CSV form. Runs are stored in a local SQLite database for historical
comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
