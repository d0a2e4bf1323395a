// =============================================================================
// Spreadconnect Order Importer - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the configuration
// and an export file's header without submitting anything.
//
// COMMAND USAGE:
//   importer validate <file>
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craftmerch/spod-order-importer/internal/config"
	"github.com/craftmerch/spod-order-importer/internal/parser"
	"github.com/craftmerch/spod-order-importer/internal/schema"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate configuration and file header without submitting",
	Long: `The validate command loads the configuration and checks the header row of
an order export file against the expected 52-column schema. No data rows
are parsed and no orders are submitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(filePath string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	registry := schema.Default()
	p := parser.New(registry, cfg.AcceptedFulfillmentService)
	if err := p.ValidateFileHeader(filePath); err != nil {
		return err
	}

	fmt.Println("Configuration OK")
	fmt.Printf("Header OK (%d columns)\n", registry.ExpectedColumnCount())
	return nil
}
