// =============================================================================
// Spreadconnect Order Importer - Row Parser
// =============================================================================
//
// This module maps raw export rows into order lines and runs the full
// file-level pipeline: header validation, row streaming, per-row parsing
// and cleaning, fulfillment-service filtering, and grouping into
// consolidated orders.
//
// ERROR POLICY:
//   - The header row is validated once; a mismatch is fatal for the file.
//   - Data rows that are short, malformed, or marked for a different
//     fulfillment provider are dropped silently.
//   - Field-level faults never propagate: every field resolves to its
//     normalizer's safe default.
//
// =============================================================================

package parser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/craftmerch/spod-order-importer/internal/grouper"
	"github.com/craftmerch/spod-order-importer/internal/normalize"
	"github.com/craftmerch/spod-order-importer/internal/schema"
	"github.com/craftmerch/spod-order-importer/internal/types"
)

// ErrRowParse is returned when row extraction fails unexpectedly. Row
// parsing recovers from any fault instead of propagating it.
var ErrRowParse = errors.New("failed to parse CSV row")

// Parser turns raw rows into order lines and files into consolidated
// orders. Safe for reuse across files; each parse owns its own grouping
// accumulator.
type Parser struct {
	registry *schema.Registry
	accepted string
	logger   *log.Entry
}

// New creates a parser over the given schema registry. Only rows whose
// fulfillment-service column exactly equals accepted (case-sensitive) are
// imported.
func New(registry *schema.Registry, accepted string) *Parser {
	return &Parser{
		registry: registry,
		accepted: accepted,
		logger:   log.WithField("component", "parser"),
	}
}

// =============================================================================
// FILE PIPELINE
// =============================================================================

// ParseAnyFile dispatches on the file extension: ".xlsx" workbooks go
// through ParseXLSXFile, everything else is treated as CSV.
func (p *Parser) ParseAnyFile(path string) ([]types.ConsolidatedOrder, error) {
	if isXLSX(path) {
		return p.ParseXLSXFile(path)
	}
	return p.ParseFile(path)
}

// ValidateFileHeader checks only the header row of an export file, without
// parsing any data rows.
func (p *Parser) ValidateFileHeader(path string) error {
	if isXLSX(path) {
		return p.validateXLSXHeader(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("CSV validation failed: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader)

	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("CSV validation failed: file is empty")
	}
	if err != nil {
		return fmt.Errorf("CSV validation failed: %v", err)
	}
	if err := p.registry.ValidateHeaders(header); err != nil {
		return fmt.Errorf("CSV validation failed: %v", err)
	}
	return nil
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// ParseFile reads a CSV export, validates its header, and streams the data
// rows through parsing, filtering, cleaning, and grouping. The returned
// orders are in first-seen reference order.
//
// Any I/O or header-validation failure is fatal and reported without
// touching the remaining file.
func (p *Parser) ParseFile(path string) ([]types.ConsolidatedOrder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("CSV validation failed: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	configureReader(reader)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV validation failed: file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("CSV validation failed: %v", err)
	}
	if err := p.registry.ValidateHeaders(header); err != nil {
		return nil, fmt.Errorf("CSV validation failed: %v", err)
	}

	acc := grouper.NewAccumulator()
	rowNumber := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			// Malformed line; the reader continues past it.
			p.logger.WithError(err).WithField("row", rowNumber).Debug("skipping malformed row")
			continue
		}
		p.consume(row, rowNumber, acc)
	}

	p.logger.WithFields(log.Fields{
		"file":   path,
		"rows":   rowNumber - 1,
		"orders": acc.Len(),
	}).Info("file parsed")

	return acc.Orders(), nil
}

// configureReader applies the supported CSV dialect: comma-delimited,
// RFC4180-quoted, tolerant of ragged row lengths.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// consume runs one data row through parse, filter, re-clean, and group.
func (p *Parser) consume(row []string, rowNumber int, acc *grouper.Accumulator) {
	line, err := p.ParseRow(row)
	if err != nil {
		p.logger.WithError(err).WithField("row", rowNumber).Debug("dropping row")
		return
	}
	if line.FulfillmentService != p.accepted {
		p.logger.WithFields(log.Fields{
			"row":     rowNumber,
			"service": line.FulfillmentService,
		}).Debug("dropping row for foreign fulfillment service")
		return
	}
	acc.Add(sanitizeLine(line))
}

// =============================================================================
// ROW PARSING
// =============================================================================

// ParseRow maps one raw row into an order line, applying the appropriate
// normalizer per field. Rows shorter than the schema's expected column
// count fail fast; any unexpected fault during extraction is recovered and
// reported as ErrRowParse.
func (p *Parser) ParseRow(row []string) (line types.OrderLine, err error) {
	defer func() {
		if r := recover(); r != nil {
			line = types.OrderLine{}
			err = fmt.Errorf("%w: %v", ErrRowParse, r)
		}
	}()

	if vErr := p.registry.ValidateRow(row); vErr != nil {
		return types.OrderLine{}, fmt.Errorf("%w: %v", ErrRowParse, vErr)
	}

	value := func(name string) string {
		return p.registry.FieldValue(row, name, "")
	}

	currency := normalize.CleanString(value(schema.FieldCurrency))
	orderRef := normalize.CleanString(value(schema.FieldOrderNumber))

	item := types.OrderItem{
		SKU:                        normalize.CleanString(value(schema.FieldSKU)),
		ExternalOrderItemReference: normalize.CleanString(value(schema.FieldExternalItemRef)),
		Quantity:                   normalize.ParseInteger(value(schema.FieldQuantity)),
		CustomerPrice: types.Price{
			Amount:   normalize.ParseFloat(value(schema.FieldItemPrice)),
			Currency: currency,
		},
	}
	if item.ExternalOrderItemReference == "" {
		item.ExternalOrderItemReference = orderRef + "-" + item.SKU
	}

	shipping := types.Shipping{
		PreferredType: types.PreferredShippingType,
		Address: types.Address{
			FirstName: normalize.ExtractFirstName(value(schema.FieldRecipientName)),
			LastName:  normalize.ExtractLastName(value(schema.FieldRecipientName)),
			Company:   normalize.CleanString(value(schema.FieldRecipientCompany)),
			Country:   normalize.NormalizeCountryCode(value(schema.FieldDeliveryCountry)),
			State:     normalize.NormalizeStateCode(value(schema.FieldDeliveryState)),
			City:      normalize.CleanCityName(value(schema.FieldDeliveryCity)),
			Street:    normalize.CleanString(value(schema.FieldDeliveryStreet)),
			ZipCode:   normalize.CleanString(value(schema.FieldDeliveryZipCode)),
		},
		CustomerPrice: types.Price{
			Amount:   normalize.ParseFloat(value(schema.FieldShippingPrice)),
			Currency: currency,
		},
	}

	billing := types.Address{
		FirstName: normalize.ExtractFirstName(value(schema.FieldBillingName)),
		LastName:  normalize.ExtractLastName(value(schema.FieldBillingName)),
		Company:   normalize.CleanString(value(schema.FieldBillingCompany)),
		Country:   normalize.NormalizeCountryCode(value(schema.FieldBillingCountry)),
		State:     normalize.NormalizeStateCode(value(schema.FieldBillingState)),
		City:      normalize.CleanCityName(value(schema.FieldBillingCity)),
		Street:    normalize.CleanString(value(schema.FieldBillingStreet)),
		ZipCode:   normalize.CleanString(value(schema.FieldBillingZipCode)),
	}

	return types.OrderLine{
		Item:                   item,
		Phone:                  normalize.ParsePhoneNumber(value(schema.FieldRecipientPhone)),
		Shipping:               shipping,
		BillingAddress:         billing,
		ExternalOrderReference: orderRef,
		Currency:               currency,
		Email:                  normalize.ValidateEmail(value(schema.FieldEmail)),
		FulfillmentService:     value(schema.FieldFulfillmentService),
	}, nil
}

// =============================================================================
// DEFENSE-IN-DEPTH CLEANING
// =============================================================================

// sanitizeLine re-cleans the nested address fields and phone before the
// line enters the accumulator. New values are built by copy-with-override;
// nothing is mutated in place.
func sanitizeLine(line types.OrderLine) types.OrderLine {
	out := line
	out.Phone = normalize.CleanString(line.Phone)
	out.Shipping.Address = sanitizeAddress(line.Shipping.Address)
	out.BillingAddress = sanitizeAddress(line.BillingAddress)
	return out
}

func sanitizeAddress(a types.Address) types.Address {
	return types.Address{
		FirstName: normalize.CleanString(a.FirstName),
		LastName:  normalize.CleanString(a.LastName),
		Company:   normalize.CleanString(a.Company),
		Country:   normalize.CleanString(a.Country),
		State:     normalize.CleanString(a.State),
		City:      normalize.CleanString(a.City),
		Street:    normalize.CleanString(a.Street),
		ZipCode:   normalize.CleanString(a.ZipCode),
	}
}
