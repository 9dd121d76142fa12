// Package ledger holds the single authoritative in-memory state of the
// bookstore: the catalog of composed items, the order collection, users,
// reviews and categories. All mutations go through ledger operations;
// query operations return defensive copies, never live references.
//
// The ledger is single-actor state. It is not safe for concurrent
// writers and does not try to be; the process model is synchronous
// request/response.
package ledger

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/order"
)

// orderIDPrefix and the counter start value define the generated order
// id format: ORD1000, ORD1001, ...
const (
	orderIDPrefix     = "ORD"
	orderCounterStart = 1000
)

// Ledger is the authoritative collection set. Construct with New or
// FromSnapshot.
type Ledger struct {
	items        []catalog.PricedBook
	orders       []order.Order
	users        []User
	reviews      []Review
	categories   map[string]struct{}
	orderCounter int
}

// New creates an empty ledger with the order counter at its start
// value.
func New() *Ledger {
	return &Ledger{
		categories:   make(map[string]struct{}),
		orderCounter: orderCounterStart,
	}
}

// --- Catalog mutations ---

// AddItem inserts a composed item and registers its category. Inserting
// an id that is already present overwrites the existing item in place
// (last-write-wins); the overwrite is logged but not an error.
func (l *Ledger) AddItem(item catalog.PricedBook) {
	clone := item.Clone()
	for i := range l.items {
		if l.items[i].ID() == item.ID() {
			slog.Warn("duplicate item id, overwriting", "id", item.ID())
			l.items[i] = clone
			l.registerCategory(clone.Category())
			return
		}
	}
	l.items = append(l.items, clone)
	l.registerCategory(clone.Category())
	metrics.CatalogSize.Set(float64(len(l.items)))
}

// RemoveItem deletes the item with the given id. Existing order
// snapshots are self-contained and are not touched.
func (l *Ledger) RemoveItem(id string) error {
	for i := range l.items {
		if l.items[i].ID() == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			metrics.CatalogSize.Set(float64(len(l.items)))
			return nil
		}
	}
	return fmt.Errorf("%w: item %s", errs.ErrNotFound, id)
}

// UpdateItem replaces the item with the matching id, preserving its
// position in the catalog, and registers the (possibly new) category.
func (l *Ledger) UpdateItem(item catalog.PricedBook) error {
	for i := range l.items {
		if l.items[i].ID() == item.ID() {
			l.items[i] = item.Clone()
			l.registerCategory(item.Category())
			return nil
		}
	}
	return fmt.Errorf("%w: item %s", errs.ErrNotFound, item.ID())
}

// AdjustStock changes an item's stock by delta. The resulting stock may
// not go negative.
func (l *Ledger) AdjustStock(id string, delta int) error {
	it, ok := l.find(id)
	if !ok {
		return fmt.Errorf("%w: item %s", errs.ErrNotFound, id)
	}
	next := it.Stock() + delta
	if next < 0 {
		return fmt.Errorf("%w: stock of %s would go negative (%d%+d)",
			errs.ErrInvalidState, id, it.Stock(), delta)
	}
	it.SetStock(next)
	return nil
}

// AdjustPopularity changes an item's popularity by delta, clamped at a
// floor of zero. Cancellations must not under-flow popularity even if
// earlier operations already drained it.
func (l *Ledger) AdjustPopularity(id string, delta int) error {
	it, ok := l.find(id)
	if !ok {
		return fmt.Errorf("%w: item %s", errs.ErrNotFound, id)
	}
	it.AddPopularity(delta)
	return nil
}

// find returns the live view for id. Internal use only; callers outside
// the ledger get clones.
func (l *Ledger) find(id string) (catalog.PricedBook, bool) {
	for i := range l.items {
		if l.items[i].ID() == id {
			return l.items[i], true
		}
	}
	return catalog.PricedBook{}, false
}

// --- Catalog queries (defensive copies) ---

// ItemByID returns a detached copy of the item.
func (l *Ledger) ItemByID(id string) (catalog.PricedBook, error) {
	it, ok := l.find(id)
	if !ok {
		return catalog.PricedBook{}, fmt.Errorf("%w: item %s", errs.ErrNotFound, id)
	}
	return it.Clone(), nil
}

// Items returns copies of every item in catalog order.
func (l *Ledger) Items() []catalog.PricedBook {
	out := make([]catalog.PricedBook, 0, len(l.items))
	for i := range l.items {
		out = append(out, l.items[i].Clone())
	}
	return out
}

// Search returns items whose title or author contains the query,
// case-insensitively.
func (l *Ledger) Search(query string) []catalog.PricedBook {
	q := strings.ToLower(query)
	var out []catalog.PricedBook
	for i := range l.items {
		it := l.items[i]
		if strings.Contains(strings.ToLower(it.Title()), q) ||
			strings.Contains(strings.ToLower(it.Author()), q) {
			out = append(out, it.Clone())
		}
	}
	return out
}

// ByCategory returns items in the given category (case-insensitive
// equality).
func (l *Ledger) ByCategory(category string) []catalog.PricedBook {
	var out []catalog.PricedBook
	for i := range l.items {
		if strings.EqualFold(l.items[i].Category(), category) {
			out = append(out, l.items[i].Clone())
		}
	}
	return out
}

// SortByPrice returns all items ordered by effective price.
func (l *Ledger) SortByPrice(ascending bool) []catalog.PricedBook {
	out := l.Items()
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].EffectivePrice().LessThan(out[j].EffectivePrice())
		}
		return out[i].EffectivePrice().GreaterThan(out[j].EffectivePrice())
	})
	return out
}

// SortByPopularity returns all items ordered by popularity, highest
// first.
func (l *Ledger) SortByPopularity() []catalog.PricedBook {
	out := l.Items()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity() > out[j].Popularity()
	})
	return out
}

// TopSelling returns the n most popular items.
func (l *Ledger) TopSelling(n int) []catalog.PricedBook {
	out := l.SortByPopularity()
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// --- Categories ---

func (l *Ledger) registerCategory(category string) {
	if category != "" {
		l.categories[category] = struct{}{}
	}
}

// AddCategory registers a category. Adding an existing one is a no-op.
func (l *Ledger) AddCategory(category string) {
	l.registerCategory(category)
}

// Categories returns the known categories, sorted.
func (l *Ledger) Categories() []string {
	out := make([]string, 0, len(l.categories))
	for c := range l.categories {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// --- Order lifecycle ---

// CartLine is one committed cart line: an item reference plus quantity.
type CartLine struct {
	ItemID   string
	Quantity int
}

// PlaceOrder turns cart lines into a PENDING order. Line item ids must
// be unique (a merging cart always satisfies this); every line is
// validated against live stock before any mutation, so a single failing
// line leaves the ledger untouched. On success, per line, stock drops
// by the quantity, popularity rises by the quantity, and an immutable
// snapshot captures the current effective price.
func (l *Ledger) PlaceOrder(lines []CartLine, customerRef string) (order.Order, error) {
	if len(lines) == 0 {
		return order.Order{}, fmt.Errorf("%w: cart is empty", errs.ErrValidation)
	}

	// Validate all lines before mutating any. Duplicate ids would let
	// each line pass the stock check independently and drive stock
	// negative when both mutate, so they are rejected outright.
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ItemID]; dup {
			return order.Order{}, fmt.Errorf("%w: duplicate line for item %s",
				errs.ErrValidation, line.ItemID)
		}
		seen[line.ItemID] = struct{}{}
		it, ok := l.find(line.ItemID)
		if !ok {
			return order.Order{}, fmt.Errorf("%w: item %s", errs.ErrNotFound, line.ItemID)
		}
		if line.Quantity < 1 {
			return order.Order{}, fmt.Errorf("%w: quantity %d for item %s",
				errs.ErrValidation, line.Quantity, line.ItemID)
		}
		if line.Quantity > it.Stock() {
			return order.Order{}, fmt.Errorf("%w: requested %d of %s but only %d in stock",
				errs.ErrValidation, line.Quantity, line.ItemID, it.Stock())
		}
	}

	snapshots := make([]order.ItemSnapshot, 0, len(lines))
	for _, line := range lines {
		it, _ := l.find(line.ItemID)
		it.SetStock(it.Stock() - line.Quantity)
		it.AddPopularity(line.Quantity)
		snapshots = append(snapshots, order.ItemSnapshot{
			ItemID:    it.ID(),
			Title:     it.Title(),
			Author:    it.Author(),
			Category:  it.Category(),
			Quantity:  line.Quantity,
			UnitPrice: it.EffectivePrice(),
		})
	}

	o := order.New(l.nextOrderID(), customerRef, snapshots, time.Now().UTC())
	l.orders = append(l.orders, o)
	return o.Clone(), nil
}

// CancelOrder moves a PENDING order to CANCELLED, restoring stock and
// popularity by each snapshot's quantity. Lines whose item was deleted
// since commit are skipped: stock cannot be restored on a nonexistent
// item. That loss is intentional and observable through the
// cancel_restore_skipped metric.
func (l *Ledger) CancelOrder(id string) (order.Order, error) {
	o, err := l.findOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	if !o.Status.CanTransition(order.StatusCancelled) {
		return order.Order{}, fmt.Errorf("%w: cannot cancel order %s in status %s",
			errs.ErrInvalidState, id, o.Status)
	}

	for _, snap := range o.Items {
		it, ok := l.find(snap.ItemID)
		if !ok {
			slog.Warn("cancel: item deleted, skipping stock restore",
				"order", id, "item", snap.ItemID, "qty", snap.Quantity)
			metrics.CancelRestoreSkipped.Inc()
			continue
		}
		it.SetStock(it.Stock() + snap.Quantity)
		it.AddPopularity(-snap.Quantity) // floors at zero
	}

	o.Status = order.StatusCancelled
	return o.Clone(), nil
}

// ConfirmOrder moves a PENDING order to CONFIRMED. Stock and popularity
// already moved at commit time, so confirmation has no counter side
// effects.
func (l *Ledger) ConfirmOrder(id string) (order.Order, error) {
	return l.transition(id, order.StatusConfirmed)
}

// ShipOrder moves a CONFIRMED order to SHIPPED.
func (l *Ledger) ShipOrder(id string) (order.Order, error) {
	return l.transition(id, order.StatusShipped)
}

func (l *Ledger) transition(id string, to order.Status) (order.Order, error) {
	o, err := l.findOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	if !o.Status.CanTransition(to) {
		return order.Order{}, fmt.Errorf("%w: order %s cannot move %s -> %s",
			errs.ErrInvalidState, id, o.Status, to)
	}
	o.Status = to
	return o.Clone(), nil
}

func (l *Ledger) findOrder(id string) (*order.Order, error) {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return &l.orders[i], nil
		}
	}
	return nil, fmt.Errorf("%w: order %s", errs.ErrNotFound, id)
}

func (l *Ledger) nextOrderID() string {
	id := fmt.Sprintf("%s%d", orderIDPrefix, l.orderCounter)
	l.orderCounter++
	return id
}

// --- Order queries ---

// OrderByID returns a copy of the order.
func (l *Ledger) OrderByID(id string) (order.Order, error) {
	o, err := l.findOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	return o.Clone(), nil
}

// Orders returns copies of every order in placement order.
func (l *Ledger) Orders() []order.Order {
	out := make([]order.Order, 0, len(l.orders))
	for i := range l.orders {
		out = append(out, l.orders[i].Clone())
	}
	return out
}

// PendingOrders returns copies of orders still awaiting confirmation.
func (l *Ledger) PendingOrders() []order.Order {
	var out []order.Order
	for i := range l.orders {
		if l.orders[i].Status == order.StatusPending {
			out = append(out, l.orders[i].Clone())
		}
	}
	return out
}

// OrdersForCustomer returns copies of the customer's orders.
func (l *Ledger) OrdersForCustomer(customerRef string) []order.Order {
	var out []order.Order
	for i := range l.orders {
		if l.orders[i].CustomerRef == customerRef {
			out = append(out, l.orders[i].Clone())
		}
	}
	return out
}

// OrderCount returns the number of orders ever placed.
func (l *Ledger) OrderCount() int { return len(l.orders) }

// --- Statistics (read-only aggregations over committed orders) ---

// TotalRevenue sums order totals over CONFIRMED and SHIPPED orders.
// PENDING and CANCELLED orders contribute nothing.
func (l *Ledger) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for i := range l.orders {
		if revenueCounts(l.orders[i].Status) {
			total = total.Add(l.orders[i].TotalAmount)
		}
	}
	return total
}

// CategorySales sums snapshot quantities over CONFIRMED and SHIPPED
// orders, grouped by the category captured at purchase time — not the
// live item's category, which may have changed since.
func (l *Ledger) CategorySales() map[string]int {
	stats := make(map[string]int)
	for i := range l.orders {
		if !revenueCounts(l.orders[i].Status) {
			continue
		}
		for _, snap := range l.orders[i].Items {
			stats[snap.Category] += snap.Quantity
		}
	}
	return stats
}

func revenueCounts(s order.Status) bool {
	return s == order.StatusConfirmed || s == order.StatusShipped
}
