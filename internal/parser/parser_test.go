package parser

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftmerch/spod-order-importer/internal/schema"
)

const acceptedService = "Spreadconnect"

// testRow builds a full-width row with sensible defaults, overridden per
// test via field name.
func testRow(t *testing.T, overrides map[string]string) []string {
	t.Helper()

	reg := schema.Default()
	values := map[string]string{
		schema.FieldOrderNumber:        "1001",
		schema.FieldEmail:              "shane@example.com",
		schema.FieldSKU:                "SKU1",
		schema.FieldExternalItemRef:    "1001-1",
		schema.FieldQuantity:           "1",
		schema.FieldItemPrice:          "18.98",
		schema.FieldRecipientName:      "Shane Ogilvie",
		schema.FieldRecipientPhone:     "015224260416",
		schema.FieldDeliveryCountry:    "DE - Germany",
		schema.FieldDeliveryState:      "Berlin - BE",
		schema.FieldDeliveryCity:       "Berlin - Mitte",
		schema.FieldDeliveryStreet:     "Musterstrasse 1",
		schema.FieldDeliveryZipCode:    "10115",
		schema.FieldBillingName:        "Shane Ogilvie",
		schema.FieldBillingCountry:     "DE - Germany",
		schema.FieldBillingState:       "Berlin - BE",
		schema.FieldBillingCity:        "Berlin",
		schema.FieldBillingStreet:      "Musterstrasse 1",
		schema.FieldBillingZipCode:     "10115",
		schema.FieldShippingPrice:      "4.99",
		schema.FieldCurrency:           "EUR",
		schema.FieldFulfillmentService: acceptedService,
	}
	for name, v := range overrides {
		values[name] = v
	}

	row := make([]string, reg.ExpectedColumnCount())
	for name, v := range values {
		pos, ok := reg.FieldPosition(name)
		require.True(t, ok, "unknown field %q", name)
		row[pos] = v
	}
	return row
}

// writeCSV writes a header plus the given rows to a temp file.
func writeCSV(t *testing.T, rows ...[]string) string {
	t.Helper()

	header := schema.Default().AllFieldNames()

	path := filepath.Join(t.TempDir(), "orders.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(header))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func newParser() *Parser {
	return New(schema.Default(), acceptedService)
}

// =============================================================================
// FILE-LEVEL TESTS
// =============================================================================

func TestParseFileEndToEnd(t *testing.T) {
	path := writeCSV(t, testRow(t, nil))

	orders, err := newParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	require.Len(t, order.OrderItems, 1)

	item := order.OrderItems[0]
	assert.Equal(t, "SKU1", item.SKU)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, 18.98, item.CustomerPrice.Amount)
	assert.Equal(t, "EUR", item.CustomerPrice.Currency)

	assert.Equal(t, "Shane", order.Shipping.Address.FirstName)
	assert.Equal(t, "Ogilvie", order.Shipping.Address.LastName)
	assert.Equal(t, "DE", order.Shipping.Address.Country)
	assert.Equal(t, "BE", order.Shipping.Address.State)
	assert.Equal(t, "Berlin", order.Shipping.Address.City)
	assert.Equal(t, "STANDARD", order.Shipping.PreferredType)

	assert.Equal(t, "+4915224260416", order.Phone)
	assert.Equal(t, "shane@example.com", order.Email)
	assert.Equal(t, "1001", order.ExternalOrderReference)
}

func TestParseFileHeaderMismatchIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := newParser().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV validation failed")
}

func TestParseFileEmptyFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := newParser().ParseFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV validation failed")
}

func TestParseFileUnreadableFileIsFatal(t *testing.T) {
	_, err := newParser().ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV validation failed")
}

func TestParseFileFiltersForeignFulfillmentService(t *testing.T) {
	path := writeCSV(t,
		testRow(t, nil),
		testRow(t, map[string]string{
			schema.FieldOrderNumber:        "2002",
			schema.FieldFulfillmentService: "Other Provider",
		}),
		// Filtering is case-sensitive.
		testRow(t, map[string]string{
			schema.FieldOrderNumber:        "3003",
			schema.FieldFulfillmentService: "spreadconnect",
		}),
	)

	orders, err := newParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "1001", orders[0].ExternalOrderReference)
}

func TestParseFileDropsShortRows(t *testing.T) {
	path := writeCSV(t,
		testRow(t, nil),
		[]string{"2002", "short", "row"},
	)

	orders, err := newParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "1001", orders[0].ExternalOrderReference)
}

func TestParseFileGroupsMultiLineOrders(t *testing.T) {
	path := writeCSV(t,
		testRow(t, map[string]string{schema.FieldSKU: "SKU1"}),
		testRow(t, map[string]string{
			schema.FieldSKU:   "SKU2",
			schema.FieldEmail: "different@example.com",
		}),
		testRow(t, map[string]string{
			schema.FieldOrderNumber: "2002",
			schema.FieldSKU:         "SKU3",
		}),
	)

	orders, err := newParser().ParseFile(path)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	require.Len(t, first.OrderItems, 2)
	assert.Equal(t, "SKU1", first.OrderItems[0].SKU)
	assert.Equal(t, "SKU2", first.OrderItems[1].SKU)
	// Non-item fields come from the first-seen line.
	assert.Equal(t, "shane@example.com", first.Email)

	assert.Equal(t, "2002", orders[1].ExternalOrderReference)
}

// =============================================================================
// ROW-LEVEL TESTS
// =============================================================================

func TestParseRowDefaults(t *testing.T) {
	row := testRow(t, map[string]string{
		schema.FieldQuantity:  "abc",
		schema.FieldItemPrice: "not-a-price",
		schema.FieldEmail:     "",
	})

	line, err := newParser().ParseRow(row)
	require.NoError(t, err)

	assert.Equal(t, 1, line.Item.Quantity, "unparsable quantity defaults to 1")
	assert.Equal(t, 0.0, line.Item.CustomerPrice.Amount, "unparsable price defaults to 0.0")
	assert.Equal(t, "noemail@example.com", line.Email)
}

func TestParseRowNegativePassThrough(t *testing.T) {
	row := testRow(t, map[string]string{
		schema.FieldQuantity:  "-3",
		schema.FieldItemPrice: "-5.50",
	})

	line, err := newParser().ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, -3, line.Item.Quantity)
	assert.Equal(t, -5.5, line.Item.CustomerPrice.Amount)
}

func TestParseRowStripsQuotes(t *testing.T) {
	row := testRow(t, map[string]string{
		schema.FieldDeliveryStreet: `"Musterstrasse 1"`,
		schema.FieldRecipientPhone: `"015224260416"`,
	})

	line, err := newParser().ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, "Musterstrasse 1", line.Shipping.Address.Street)
	assert.Equal(t, "+4915224260416", line.Phone)
}

func TestParseRowShortRowFails(t *testing.T) {
	_, err := newParser().ParseRow([]string{"1001", "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRowParse)
}

func TestParseRowSynthesizesItemReference(t *testing.T) {
	row := testRow(t, map[string]string{schema.FieldExternalItemRef: ""})

	line, err := newParser().ParseRow(row)
	require.NoError(t, err)
	assert.Equal(t, "1001-SKU1", line.Item.ExternalOrderItemReference)
}
