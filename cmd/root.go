// =============================================================================
// Spreadconnect Order Importer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that the 'import', 'validate', and 'version' commands
// are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (importer)
//   ├── importCmd   (importer import <file> [base-url])
//   ├── validateCmd (importer validate <file>)
//   └── versionCmd  (importer version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/craftmerch/spod-order-importer/internal/config"
)

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Spreadconnect Order Importer - Submit CSV order exports to the order API",

	Long: `Spreadconnect Order Importer ingests a fixed-schema CSV (or XLSX) export
of e-commerce orders, validates and normalizes each row, groups multi-line
orders by order number, and submits each consolidated order concurrently to
the Spreadconnect order-creation endpoint.

Key Features:
  - Defensive field cleaning with documented safe defaults
  - Fulfillment-service filtering (only Spreadconnect rows are imported)
  - Bounded-concurrency submission with per-order failure isolation
  - Per-order error reporting plus a final summary

Example Usage:
  importer import orders.csv                     # Import against the configured endpoint
  importer import orders.csv http://localhost:4000 # Override the base URL for testing
  importer validate orders.csv                   # Validate the file header without submitting`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setupLogging applies the configured log level; --verbose wins.
func setupLogging(cfg *config.Config) {
	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
