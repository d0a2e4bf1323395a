// =============================================================================
// Spreadconnect Order Importer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Spreadconnect order importer CLI.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   importer import <file> [base-url]  - Import an order export file
//   importer validate <file>           - Validate a file without submitting
//   importer version                   - Display the application version
//
// ARCHITECTURE:
//   - cmd/        : CLI command definitions (Cobra)
//   - internal/   : Core pipeline (schema, normalize, parser, grouper,
//                   camelize, submitter)
//   - pkg/        : Shared utilities (archival, error logs)
//
// =============================================================================

package main

import (
	"github.com/craftmerch/spod-order-importer/cmd"
)

func main() {
	cmd.Execute()
}
