// Package order defines the immutable order snapshot types and the
// lifecycle status machine.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

// CanTransition reports whether the forward path PENDING → CONFIRMED →
// SHIPPED or the cancellation path PENDING → CANCELLED allows moving to
// the target status. CANCELLED is absorbing.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusShipped
	default:
		return false
	}
}

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusCancelled:
		return true
	}
	return false
}

// ItemSnapshot is the denormalized capture of one cart line taken at
// commit time. It never references the live catalog item: the fields
// needed for display and accounting stay valid even if the source item
// is later deleted, and the unit price is the effective composed price
// at commit, not the live price.
type ItemSnapshot struct {
	ItemID    string          `json:"item_id"`
	Title     string          `json:"title_at_purchase"`
	Author    string          `json:"author_at_purchase"`
	Category  string          `json:"category_at_purchase"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price_at_purchase"`
}

// Subtotal returns unitPriceAtPurchase * quantity.
func (s ItemSnapshot) Subtotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// Order is a committed cart. Orders are never deleted, only
// transitioned; the items slice is fixed at commit time.
type Order struct {
	ID          string          `json:"order_id"`
	CustomerRef string          `json:"customer_ref"`
	Items       []ItemSnapshot  `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// New builds a PENDING order from commit-time snapshots, computing the
// total as the sum of line subtotals.
func New(id, customerRef string, items []ItemSnapshot, now time.Time) Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return Order{
		ID:          id,
		CustomerRef: customerRef,
		Items:       items,
		TotalAmount: total,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

// Clone returns a copy with its own items slice so callers cannot
// mutate ledger-owned state.
func (o Order) Clone() Order {
	c := o
	c.Items = append([]ItemSnapshot(nil), o.Items...)
	return c
}
