package camelize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "orderNumber", Key("order_number"))
	assert.Equal(t, "externalOrderItemReference", Key("external_order_item_reference"))
	assert.Equal(t, "sku", Key("sku"))
	assert.Equal(t, "", Key(""))
	// Already-camel keys are a single segment and pass through.
	assert.Equal(t, "zipCode", Key("zipCode"))
}

func TestTransformFlatMap(t *testing.T) {
	got := Transform(map[string]any{"order_number": "5"})
	assert.Equal(t, map[string]any{"orderNumber": "5"}, got)
}

func TestTransformNested(t *testing.T) {
	in := map[string]any{
		"order_items": []any{
			map[string]any{
				"sku":            "SKU1",
				"customer_price": map[string]any{"amount": 18.98, "currency": "EUR"},
			},
		},
		"billing_address": map[string]any{"zip_code": "10115"},
		"quantity":        1.0,
		"taxable":         true,
		"notes":           nil,
	}

	want := map[string]any{
		"orderItems": []any{
			map[string]any{
				"sku":           "SKU1",
				"customerPrice": map[string]any{"amount": 18.98, "currency": "EUR"},
			},
		},
		"billingAddress": map[string]any{"zipCode": "10115"},
		"quantity":       1.0,
		"taxable":        true,
		"notes":          nil,
	}

	assert.Equal(t, want, Transform(in))
}

func TestTransformScalarsPassThrough(t *testing.T) {
	assert.Equal(t, "snake_case_value", Transform("snake_case_value"), "scalar strings are values, not keys")
	assert.Equal(t, 42.0, Transform(42.0))
	assert.Equal(t, true, Transform(true))
	assert.Nil(t, Transform(nil))
}

func TestTransformEmptyCollections(t *testing.T) {
	assert.Equal(t, map[string]any{}, Transform(map[string]any{}))
	assert.Equal(t, []any{}, Transform([]any{}))
}
