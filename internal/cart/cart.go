// Package cart implements the per-customer shopping cart: an ordered
// set of (item id, quantity) lines, merged on add. Carts are transient
// session state and are never persisted; only the order produced at
// commit survives.
package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
)

// Line is one cart entry. Quantity is always >= 1.
type Line struct {
	ItemID   string
	Quantity int
}

// Cart holds the lines for one customer session.
type Cart struct {
	id    string
	lines []Line
}

// New creates an empty cart with a fresh session id.
func New() *Cart {
	return &Cart{id: uuid.New().String()}
}

// ID returns the cart's session identifier.
func (c *Cart) ID() string { return c.id }

// Add appends qty of the given item, merging with an existing line for
// the same id. The quantity is checked against the item's stock at add
// time only; a merged sum is not re-validated until order commit, since
// stock can change between add-to-cart and checkout.
func (c *Cart) Add(item catalog.PricedBook, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", errs.ErrValidation, qty)
	}
	if qty > item.Stock() {
		return fmt.Errorf("%w: requested %d of %s but only %d in stock",
			errs.ErrValidation, qty, item.ID(), item.Stock())
	}
	for i := range c.lines {
		if c.lines[i].ItemID == item.ID() {
			c.lines[i].Quantity += qty
			return nil
		}
	}
	c.lines = append(c.lines, Line{ItemID: item.ID(), Quantity: qty})
	return nil
}

// Remove deletes the line for the given item id, if present.
func (c *Cart) Remove(itemID string) {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity replaces the quantity for an existing line. A quantity of
// zero or less removes the line. Unknown ids are ignored.
func (c *Cart) SetQuantity(itemID string, qty int) {
	if qty <= 0 {
		c.Remove(itemID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines[i].Quantity = qty
			return
		}
	}
}

// Clear removes every line.
func (c *Cart) Clear() { c.lines = nil }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total sums effectivePrice * quantity over the lines, resolving prices
// live through priceOf — cart totals are recomputed, never snapshotted.
// Lines whose item no longer resolves contribute nothing.
func (c *Cart) Total(priceOf func(itemID string) (decimal.Decimal, bool)) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		price, ok := priceOf(l.ItemID)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
