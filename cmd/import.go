// =============================================================================
// Spreadconnect Order Importer - Import Command
// =============================================================================
//
// This file defines the 'import' command, which runs the full pipeline for
// one export file.
//
// COMMAND USAGE:
//   importer import <file> [base-url]
//
// PROCESSING PIPELINE:
//   1. Load and validate configuration (fatal if the access token is
//      missing outside test mode)
//   2. Validate the file header against the 52-column schema
//   3. Stream-parse data rows, filter to Spreadconnect lines, group by
//      order number
//   4. Submit consolidated orders concurrently
//   5. Print a per-order error line for each failure and a two-line summary
//   6. Archive the input file when every order was submitted successfully
//
// A file-level failure (unreadable file, header mismatch) is returned as
// the command error; the caller maps it to a process exit code. Per-order
// submission failures are reported in the summary, not as a command error.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/craftmerch/spod-order-importer/internal/config"
	"github.com/craftmerch/spod-order-importer/internal/parser"
	"github.com/craftmerch/spod-order-importer/internal/schema"
	"github.com/craftmerch/spod-order-importer/internal/submitter"
	"github.com/craftmerch/spod-order-importer/pkg/fileutil"
)

// dryRun parses and groups the file without submitting anything.
var dryRun bool

// importCmd represents the 'import' command.
var importCmd = &cobra.Command{
	Use:   "import <file> [base-url]",
	Short: "Import an order export file and submit its orders",
	Long: `The import command parses an order export file (CSV or XLSX), groups its
rows into consolidated orders, and submits each order concurrently to the
order-creation endpoint.

Rows whose fulfillment service is not the accepted provider are skipped,
as are rows with too few columns. One order's submission failure never
aborts the rest of the batch; every order gets a reported result.

The optional second argument overrides the configured base URL, which is
useful for testing against a local stub endpoint.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := ""
		if len(args) == 2 {
			baseURL = args[1]
		}
		return runImport(cmd, args[0], baseURL)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Parse and group the file without submitting orders",
	)
}

// runImport orchestrates the import pipeline for one file.
func runImport(cmd *cobra.Command, filePath, baseURL string) error {
	startTime := time.Now()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	// =========================================================================
	// STEP 1: PARSE AND GROUP
	// =========================================================================

	p := parser.New(schema.Default(), cfg.AcceptedFulfillmentService)
	orders, err := p.ParseAnyFile(filePath)
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		fmt.Println("No matching orders found in the file.")
		fmt.Println("Successfully processed: 0 records")
		fmt.Println("Failed to process: 0 records")
		return nil
	}

	if dryRun {
		fmt.Printf("Dry run: %d order(s) parsed, nothing submitted\n", len(orders))
		for _, order := range orders {
			fmt.Printf("  %s: %d item(s)\n", order.ExternalOrderReference, len(order.OrderItems))
		}
		return nil
	}

	// =========================================================================
	// STEP 2: SUBMIT CONCURRENTLY
	// =========================================================================

	results := submitter.New(cfg, baseURL).SubmitAll(cmd.Context(), orders)

	// =========================================================================
	// STEP 3: REPORT RESULTS
	// =========================================================================

	var successCount, failureCount int
	var logEntries []fileutil.ErrorLogEntry

	for _, result := range results {
		if result.Success {
			successCount++
			continue
		}
		failureCount++

		ref := orders[result.Index].ExternalOrderReference
		fmt.Printf("Failed to submit order %s (status %d): %s\n", ref, result.Status, result.ErrorMessage())

		logEntries = append(logEntries, fileutil.ErrorLogEntry{
			Timestamp:      time.Now(),
			OrderReference: ref,
			Index:          result.Index,
			Status:         result.Status,
			Message:        result.ErrorMessage(),
		})
	}

	fmt.Printf("Successfully processed: %d records\n", successCount)
	fmt.Printf("Failed to process: %d records\n", failureCount)

	if cfg.Archive.ErrorLogDir != "" && len(logEntries) > 0 {
		logPath, err := fileutil.WriteErrorLog(logEntries, cfg.Archive.ErrorLogDir)
		if err != nil {
			log.WithError(err).Warn("failed to write error log")
		} else {
			fmt.Printf("Failures logged to %s\n", logPath)
		}
	}

	// =========================================================================
	// STEP 4: ARCHIVE ON FULL SUCCESS
	// =========================================================================

	if cfg.Archive.Enabled && failureCount == 0 {
		archiver := &fileutil.Archiver{
			Dir:              cfg.Archive.Dir,
			TimestampSubdirs: cfg.Archive.TimestampSubdirs,
		}
		archivePath, err := archiver.ArchiveInputFile(filePath)
		if err != nil {
			log.WithError(err).Warn("failed to archive input file")
		} else {
			log.WithField("archive", archivePath).Info("input file archived")
		}
	}

	log.WithFields(log.Fields{
		"orders":   len(orders),
		"success":  successCount,
		"failed":   failureCount,
		"duration": time.Since(startTime).String(),
	}).Info("import finished")

	return nil
}
