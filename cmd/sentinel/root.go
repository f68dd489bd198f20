package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - policy-as-engine compliance layer",
	Long: `Sentinel is a compliance engine that evaluates operational actions
against a layered rule set before they are allowed to proceed.

It exposes an HTTP decision API that:
  - Evaluates action requests across regulatory, organizational,
    safety, and adversarial rule layers
  - Normalizes chained and encoded commands before evaluation
  - Records every decision in an append-only, hash-verified trail
  - Reloads rules from files or a Git repository without restarts`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
