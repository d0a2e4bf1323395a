// =============================================================================
// Spreadconnect Order Importer - Order Grouper
// =============================================================================
//
// This module folds a stream of parsed order lines into one consolidated
// order per external order reference. The accumulator is single-owner for
// the duration of one file parse; it is not safe for concurrent use and is
// never shared across parses.
//
// GROUPING RULES:
//   - The first line seen for a reference seeds the consolidated order
//     with its contact, shipping, and billing fields.
//   - Every further line with the same reference only appends its order
//     item; differing contact data on later lines is ignored. The domain
//     assumes one shipping/billing identity per order.
//   - Items keep input order (append, not prepend).
//
// =============================================================================

package grouper

import (
	"github.com/craftmerch/spod-order-importer/internal/types"
)

// Accumulator collects order lines into consolidated orders, preserving
// the first-seen order of references.
type Accumulator struct {
	orders map[string]*types.ConsolidatedOrder
	refs   []string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		orders: make(map[string]*types.ConsolidatedOrder),
	}
}

// Add folds one order line into the accumulator.
func (a *Accumulator) Add(line types.OrderLine) {
	ref := line.ExternalOrderReference

	if existing, ok := a.orders[ref]; ok {
		existing.OrderItems = append(existing.OrderItems, line.Item)
		return
	}

	a.orders[ref] = &types.ConsolidatedOrder{
		OrderItems:             []types.OrderItem{line.Item},
		Phone:                  line.Phone,
		Shipping:               line.Shipping,
		BillingAddress:         line.BillingAddress,
		ExternalOrderReference: ref,
		Currency:               line.Currency,
		Email:                  line.Email,
		FulfillmentService:     line.FulfillmentService,
	}
	a.refs = append(a.refs, ref)
}

// Len returns the number of distinct order references seen.
func (a *Accumulator) Len() int {
	return len(a.refs)
}

// Orders returns the consolidated orders in first-seen reference order.
func (a *Accumulator) Orders() []types.ConsolidatedOrder {
	out := make([]types.ConsolidatedOrder, 0, len(a.refs))
	for _, ref := range a.refs {
		out = append(out, *a.orders[ref])
	}
	return out
}
