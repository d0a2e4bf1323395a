// =============================================================================
// Spreadconnect Order Importer - XLSX Input
// =============================================================================
//
// Some shops hand over the order export as an XLSX workbook instead of
// CSV. This file reads the first sheet and feeds its rows through the
// identical header/row pipeline as the CSV path.
//
// =============================================================================

package parser

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/craftmerch/spod-order-importer/internal/grouper"
	"github.com/craftmerch/spod-order-importer/internal/types"
)

// ParseXLSXFile reads an XLSX order export. The first sheet must carry the
// same 52-column layout as the CSV export: one header row, then data rows.
// Header validation failures are fatal; short or foreign data rows are
// dropped, matching the CSV policy.
func (p *Parser) ParseXLSXFile(path string) ([]types.ConsolidatedOrder, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("XLSX validation failed: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("XLSX validation failed: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("XLSX validation failed: %v", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("XLSX validation failed: sheet %q is empty", sheet)
	}

	if err := p.registry.ValidateHeaders(rows[0]); err != nil {
		return nil, fmt.Errorf("XLSX validation failed: %v", err)
	}

	acc := grouper.NewAccumulator()
	for i, row := range rows[1:] {
		// GetRows trims trailing empty cells; pad back to full width so
		// rows with empty tail columns are not mistaken for short rows.
		row = padRow(row, p.registry.ExpectedColumnCount())
		// Row numbers match the sheet, header included.
		p.consume(row, i+2, acc)
	}

	p.logger.WithFields(log.Fields{
		"file":   path,
		"sheet":  sheet,
		"rows":   len(rows) - 1,
		"orders": acc.Len(),
	}).Info("workbook parsed")

	return acc.Orders(), nil
}

// padRow extends a row with empty cells up to width. Rows at or above
// width are returned unchanged.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// validateXLSXHeader checks only the header row of a workbook.
func (p *Parser) validateXLSXHeader(path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("XLSX validation failed: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return fmt.Errorf("XLSX validation failed: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("XLSX validation failed: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("XLSX validation failed: sheet %q is empty", sheet)
	}

	if err := p.registry.ValidateHeaders(rows[0]); err != nil {
		return fmt.Errorf("XLSX validation failed: %v", err)
	}
	return nil
}
