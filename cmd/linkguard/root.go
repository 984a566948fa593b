// Package main provides the entry point for the LinkGuard CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkguard/internal/log"
)

// NewRootCmd creates the root command for LinkGuard.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkguard",
		Short: "URL safety checker for links you do not trust",
		Long: `LinkGuard analyzes URLs for phishing and malware risk.

It combines structural heuristics, public blocklist feeds, Google Safe
Browsing, VirusTotal, and a guarded page fetch into one risk score from
0 to 100 with plain-language reasons.

API keys are read from the environment (or a .env file):
  GOOGLE_SAFE_BROWSING_API_KEY, VT_API_KEY, URLSCAN_API_KEY
Every key is optional; missing keys only reduce the consulted sources.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewFeedsCmd())
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

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates a structured logger with secret redaction.
// API keys and lookup URLs pass through log attributes; the secure
// handler masks them before they reach the terminal.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}
