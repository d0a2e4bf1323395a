// =============================================================================
// Spreadconnect Order Importer - Schema Registry
// =============================================================================
//
// This module defines the fixed column layout of the order export and
// provides positional field access plus row/header validation. Exactly one
// layout is supported: 52 comma-delimited, RFC4180-quoted columns, one
// header row followed by data rows.
//
// VALIDATION STRATEGY:
//   - The header row is validated once per file; a mismatch is fatal for
//     the whole import.
//   - Required-field presence is checked by position count only, not by
//     literal header text matching. An export with the right shape but
//     renamed headers passes; the row parser's per-field defaults catch
//     the fallout.
//
// =============================================================================

package schema

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// =============================================================================
// FIELD NAMES
// =============================================================================

// Field names address columns of the export by position. These are internal
// identifiers, not header texts.
const (
	FieldOrderNumber        = "order_number"
	FieldOrderDate          = "order_date"
	FieldPaymentDate        = "payment_date"
	FieldShippingDate       = "shipping_date"
	FieldEmail              = "email"
	FieldSKU                = "sku"
	FieldExternalItemRef    = "external_item_reference"
	FieldQuantity           = "quantity"
	FieldItemPrice          = "item_price"
	FieldItemTax            = "item_tax"
	FieldRecipientName      = "recipient_name"
	FieldRecipientPhone     = "recipient_phone"
	FieldRecipientCompany   = "recipient_company"
	FieldDeliveryCountry    = "delivery_country"
	FieldDeliveryState      = "delivery_state"
	FieldDeliveryCity       = "delivery_city"
	FieldDeliveryStreet     = "delivery_street"
	FieldDeliveryZipCode    = "delivery_zip_code"
	FieldBillingName        = "billing_name"
	FieldBillingPhone       = "billing_phone"
	FieldBillingCompany     = "billing_company"
	FieldBillingCountry     = "billing_country"
	FieldBillingState       = "billing_state"
	FieldBillingCity        = "billing_city"
	FieldBillingStreet      = "billing_street"
	FieldBillingZipCode     = "billing_zip_code"
	FieldPaymentMethod      = "payment_method"
	FieldPaymentReference   = "payment_reference"
	FieldSubtotal           = "subtotal"
	FieldShippingPrice      = "shipping_price"
	FieldTaxTotal           = "tax_total"
	FieldDiscountCode       = "discount_code"
	FieldDiscountAmount     = "discount_amount"
	FieldTotal              = "total"
	FieldCurrency           = "currency"
	FieldFulfillmentService = "fulfillment_service"
	FieldShippingLabel      = "shipping_label"
	FieldShippingMethod     = "shipping_method"
	FieldTrackingNumber     = "tracking_number"
	FieldNotes              = "notes"
	FieldTags               = "tags"
	FieldSource             = "source"
	FieldRiskLevel          = "risk_level"
	FieldRefundedAmount     = "refunded_amount"
	FieldItemDiscount       = "item_discount"
	FieldItemCompareAtPrice = "item_compare_at_price"
	FieldTaxable            = "taxable"
	FieldRequiresShipping   = "requires_shipping"
	FieldFulfillmentStatus  = "fulfillment_status"
	FieldFinancialStatus    = "financial_status"
	FieldCancelledAt        = "cancelled_at"
	FieldItemWeight         = "item_weight"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps field names to fixed zero-based column positions and
// carries the set of required fields. Invariant: every required field name
// has an entry in the position mapping.
type Registry struct {
	positions map[string]int
	required  []string
	columns   int
}

// Default returns the registry for the supported 52-column export layout.
func Default() *Registry {
	positions := map[string]int{
		FieldOrderNumber:        0,
		FieldOrderDate:          1,
		FieldPaymentDate:        2,
		FieldShippingDate:       3,
		FieldEmail:              4,
		FieldSKU:                5,
		FieldExternalItemRef:    6,
		FieldQuantity:           7,
		FieldItemPrice:          8,
		FieldItemTax:            9,
		FieldRecipientName:      10,
		FieldRecipientPhone:     11,
		FieldRecipientCompany:   12,
		FieldDeliveryCountry:    13,
		FieldDeliveryState:      14,
		FieldDeliveryCity:       15,
		FieldDeliveryStreet:     16,
		FieldDeliveryZipCode:    17,
		FieldBillingName:        18,
		FieldBillingPhone:       19,
		FieldBillingCompany:     20,
		FieldBillingCountry:     21,
		FieldBillingState:       22,
		FieldBillingCity:        23,
		FieldBillingStreet:      24,
		FieldBillingZipCode:     25,
		FieldPaymentMethod:      26,
		FieldPaymentReference:   27,
		FieldSubtotal:           28,
		FieldShippingPrice:      29,
		FieldTaxTotal:           30,
		FieldDiscountCode:       31,
		FieldDiscountAmount:     32,
		FieldTotal:              33,
		FieldCurrency:           34,
		FieldFulfillmentService: 35,
		FieldShippingLabel:      36,
		FieldShippingMethod:     37,
		FieldTrackingNumber:     38,
		FieldNotes:              39,
		FieldTags:               40,
		FieldSource:             41,
		FieldRiskLevel:          42,
		FieldRefundedAmount:     43,
		FieldItemDiscount:       44,
		FieldItemCompareAtPrice: 45,
		FieldTaxable:            46,
		FieldRequiresShipping:   47,
		FieldFulfillmentStatus:  48,
		FieldFinancialStatus:    49,
		FieldCancelledAt:        50,
		FieldItemWeight:         51,
	}

	required := []string{
		FieldOrderNumber,
		FieldEmail,
		FieldSKU,
		FieldQuantity,
		FieldItemPrice,
		FieldCurrency,
		FieldFulfillmentService,
		FieldRecipientName,
		FieldDeliveryCountry,
		FieldDeliveryCity,
		FieldDeliveryStreet,
		FieldDeliveryZipCode,
	}

	return New(positions, required)
}

// New builds a registry from a position mapping and a required-field list.
// The expected column count is max(position) + 1.
func New(positions map[string]int, required []string) *Registry {
	columns := 0
	for _, pos := range positions {
		if pos+1 > columns {
			columns = pos + 1
		}
	}

	return &Registry{
		positions: positions,
		required:  required,
		columns:   columns,
	}
}

// =============================================================================
// FIELD ACCESS
// =============================================================================

// FieldPosition returns the column index for a field name.
func (r *Registry) FieldPosition(name string) (int, bool) {
	pos, ok := r.positions[name]
	return pos, ok
}

// FieldValue returns the raw cell for the named field, or fallback when
// the field is unknown, the row is too short, or the cell is empty.
// Unknown field names are logged as a warning; the lookup itself is
// non-fatal.
func (r *Registry) FieldValue(row []string, name, fallback string) string {
	pos, ok := r.positions[name]
	if !ok {
		log.WithField("field", name).Warn("unknown field name requested from schema registry")
		return fallback
	}
	if pos >= len(row) {
		return fallback
	}
	if row[pos] == "" {
		return fallback
	}
	return row[pos]
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateRow checks that a row carries at least the expected number of
// columns.
func (r *Registry) ValidateRow(row []string) error {
	if len(row) < r.columns {
		return fmt.Errorf("row has %d columns, expected at least %d", len(row), r.columns)
	}
	return nil
}

// ValidateHeaders validates the header row. Presence of required fields is
// checked by position count: every required field's position must be
// covered by the header row.
func (r *Registry) ValidateHeaders(header []string) error {
	if err := r.ValidateRow(header); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	for _, name := range r.required {
		pos, ok := r.positions[name]
		if !ok {
			return fmt.Errorf("required field %q has no position mapping", name)
		}
		if pos >= len(header) {
			return fmt.Errorf("required field %q expects column %d, header has %d columns", name, pos, len(header))
		}
	}

	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ExpectedColumnCount returns the number of columns a valid row must have.
func (r *Registry) ExpectedColumnCount() int {
	return r.columns
}

// RequiredFields returns the names of fields that must be present.
func (r *Registry) RequiredFields() []string {
	out := make([]string, len(r.required))
	copy(out, r.required)
	return out
}

// AllFieldNames returns every known field name, ordered by column position.
func (r *Registry) AllFieldNames() []string {
	names := make([]string, 0, len(r.positions))
	for name := range r.positions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.positions[names[i]] < r.positions[names[j]]
	})
	return names
}
