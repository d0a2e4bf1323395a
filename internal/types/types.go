// =============================================================================
// Spreadconnect Order Importer - Shared Types
// =============================================================================
//
// This package contains the domain records shared across the pipeline to
// avoid import cycles. Types defined here are used by:
//   - parser
//   - grouper
//   - submitter
//
// The JSON tags use snake_case field names; the submitter rewrites them to
// the camelCase wire format via the camelize package before serialization.
//
// =============================================================================

package types

// PreferredShippingType is the shipping type submitted for every order.
// The order export carries no shipping-type column, so all imported orders
// use the standard service.
const PreferredShippingType = "STANDARD"

// =============================================================================
// ORDER TYPES
// =============================================================================

// Price is a monetary amount with its currency code.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Address is a cleaned postal address. FirstName and LastName are derived
// by splitting a full-name column on whitespace; empty source fields leave
// them empty.
type Address struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Company   string `json:"company,omitempty"`
	Country   string `json:"country"`
	State     string `json:"state,omitempty"`
	City      string `json:"city"`
	Street    string `json:"street"`
	ZipCode   string `json:"zip_code"`
}

// OrderItem is a single line item within an order.
type OrderItem struct {
	SKU                        string `json:"sku"`
	ExternalOrderItemReference string `json:"external_order_item_reference"`
	Quantity                   int    `json:"quantity"`
	CustomerPrice              Price  `json:"customer_price"`
}

// Shipping carries the delivery address, the shipping service type, and the
// shipping price charged to the customer.
type Shipping struct {
	PreferredType string  `json:"preferred_type"`
	Address       Address `json:"address"`
	CustomerPrice Price   `json:"customer_price"`
}

// OrderLine is one parsed, cleaned CSV row: a single item plus the order's
// contact and address fields. Immutable after creation; the grouper folds
// order lines into consolidated orders.
type OrderLine struct {
	Item                   OrderItem
	Phone                  string
	Shipping               Shipping
	BillingAddress         Address
	ExternalOrderReference string
	Currency               string
	Email                  string

	// FulfillmentService is the raw provider column. It is only used to
	// filter rows and never leaves the process.
	FulfillmentService string
}

// ConsolidatedOrder is one entry per distinct external order reference,
// aggregating the order items of all lines sharing that reference.
// Non-item fields are taken from the first-seen line.
type ConsolidatedOrder struct {
	OrderItems             []OrderItem `json:"order_items"`
	Phone                  string      `json:"phone"`
	Shipping               Shipping    `json:"shipping"`
	BillingAddress         Address     `json:"billing_address"`
	ExternalOrderReference string      `json:"external_order_reference"`
	Currency               string      `json:"currency"`
	Email                  string      `json:"email"`
	FulfillmentService     string      `json:"-"`
}
