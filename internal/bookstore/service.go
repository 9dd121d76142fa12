// Package bookstore is the application facade: a single entry point that
// composes the ledger, the per-customer carts and the persistence
// repository. Every mutating operation flushes the full state after the
// mutation; a failed flush is reported to the caller and the in-memory
// state stands.
package bookstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/cart"
	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
	"github.com/SaiffMoh/SDP-BookStore/internal/ledger"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/order"
	"github.com/SaiffMoh/SDP-BookStore/internal/persist"
	"github.com/SaiffMoh/SDP-BookStore/internal/store"
)

// Service is the composed application. Construct with New; a
// process-wide instance is available through Default for callers that
// do not manage their own wiring.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	repo   *persist.Repository
	carts  map[string]*cart.Cart
}

// New composes a service from an existing ledger and repository.
func New(l *ledger.Ledger, repo *persist.Repository) *Service {
	return &Service{
		ledger: l,
		repo:   repo,
		carts:  make(map[string]*cart.Cart),
	}
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
)

// Default returns the process-wide service backed by an in-memory
// store. The first call constructs it; later calls return the same
// instance regardless of interleaving.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultSvc = New(ledger.New(), persist.NewRepository(store.NewMemoryStore()))
	})
	return defaultSvc
}

// flush persists the full state. Callers hold s.mu.
func (s *Service) flush(ctx context.Context) error {
	return s.repo.SaveAll(ctx, s.ledger.Snapshot())
}

// --- Catalog administration ---

// AddItem inserts a composed item into the catalog.
func (s *Service) AddItem(ctx context.Context, item catalog.PricedBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.AddItem(item)
	return s.flush(ctx)
}

// RemoveItem deletes an item. Order snapshots referencing it survive.
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.RemoveItem(id); err != nil {
		return err
	}
	return s.flush(ctx)
}

// UpdateItem replaces an existing item.
func (s *Service) UpdateItem(ctx context.Context, item catalog.PricedBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.UpdateItem(item); err != nil {
		return err
	}
	return s.flush(ctx)
}

// FeatureItem marks an item as featured. Featuring twice is a no-op.
func (s *Service) FeatureItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.ledger.ItemByID(id)
	if err != nil {
		return err
	}
	if err := s.ledger.UpdateItem(catalog.Feature(it)); err != nil {
		return err
	}
	return s.flush(ctx)
}

// DiscountItem applies a fractional discount to an item. An item that
// already carries a discount rejects a second one.
func (s *Service) DiscountItem(ctx context.Context, id string, fraction decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.ledger.ItemByID(id)
	if err != nil {
		return err
	}
	discounted, err := catalog.Discount(it, fraction)
	if err != nil {
		return err
	}
	if err := s.ledger.UpdateItem(discounted); err != nil {
		return err
	}
	return s.flush(ctx)
}

// AdjustStock changes an item's stock by delta.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.AdjustStock(id, delta); err != nil {
		return err
	}
	return s.flush(ctx)
}

// AddCategory registers a category.
func (s *Service) AddCategory(ctx context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.AddCategory(category)
	return s.flush(ctx)
}

// --- Catalog browsing ---

func (s *Service) Items() []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

func (s *Service) ItemByID(id string) (catalog.PricedBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ItemByID(id)
}

func (s *Service) Search(query string) []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Search(query)
}

func (s *Service) ByCategory(category string) []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ByCategory(category)
}

func (s *Service) SortByPrice(ascending bool) []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SortByPrice(ascending)
}

func (s *Service) SortByPopularity() []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SortByPopularity()
}

func (s *Service) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Categories()
}

// --- Cart ---

// cartFor returns the customer's cart, creating it on first use.
// Callers hold s.mu.
func (s *Service) cartFor(username string) *cart.Cart {
	c, ok := s.carts[username]
	if !ok {
		c = cart.New()
		s.carts[username] = c
	}
	return c
}

// AddToCart puts qty of an item into the customer's cart. The quantity
// is validated against live stock at add time.
func (s *Service) AddToCart(username, itemID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, err := s.ledger.ItemByID(itemID)
	if err != nil {
		return err
	}
	return s.cartFor(username).Add(it, qty)
}

// RemoveFromCart drops the line for the given item.
func (s *Service) RemoveFromCart(username, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartFor(username).Remove(itemID)
}

// SetCartQuantity replaces a line's quantity; zero or less removes it.
func (s *Service) SetCartQuantity(username, itemID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartFor(username).SetQuantity(itemID, qty)
}

// ClearCart empties the customer's cart.
func (s *Service) ClearCart(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartFor(username).Clear()
}

// CartLines returns the customer's cart lines.
func (s *Service) CartLines(username string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartFor(username).Lines()
}

// CartTotal computes the cart total at current effective prices.
func (s *Service) CartTotal(username string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartFor(username).Total(func(itemID string) (decimal.Decimal, bool) {
		it, err := s.ledger.ItemByID(itemID)
		if err != nil {
			return decimal.Zero, false
		}
		return it.EffectivePrice(), true
	})
}

// --- Order lifecycle ---

// Checkout commits the customer's cart as a PENDING order: stock and
// popularity move, the order is appended to the customer's history and
// the cart is cleared. The cart survives a failed commit untouched.
func (s *Service) Checkout(ctx context.Context, username string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cartFor(username)
	if c.IsEmpty() {
		return order.Order{}, fmt.Errorf("%w: cart is empty", errs.ErrValidation)
	}
	lines := make([]ledger.CartLine, 0, len(c.Lines()))
	for _, l := range c.Lines() {
		lines = append(lines, ledger.CartLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}

	o, err := s.ledger.PlaceOrder(lines, username)
	if err != nil {
		return order.Order{}, err
	}
	// Unknown customer refs are allowed (guest checkout); history is
	// only kept for registered accounts.
	if err := s.ledger.AppendOrderRef(username, o.ID); err != nil {
		slog.Debug("no account for order history, skipping",
			"customer", username, "order", o.ID, "err", err)
	}
	c.Clear()

	metrics.OrdersTotal.WithLabelValues("placed").Inc()
	return o, s.flush(ctx)
}

// CancelOrder cancels a PENDING order, restoring stock and popularity.
func (s *Service) CancelOrder(ctx context.Context, id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.ledger.CancelOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
	metrics.Revenue.Set(s.ledger.TotalRevenue().InexactFloat64())
	return o, s.flush(ctx)
}

// ConfirmOrder moves a PENDING order to CONFIRMED.
func (s *Service) ConfirmOrder(ctx context.Context, id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.ledger.ConfirmOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	metrics.OrdersTotal.WithLabelValues("confirmed").Inc()
	metrics.Revenue.Set(s.ledger.TotalRevenue().InexactFloat64())
	return o, s.flush(ctx)
}

// ShipOrder moves a CONFIRMED order to SHIPPED.
func (s *Service) ShipOrder(ctx context.Context, id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.ledger.ShipOrder(id)
	if err != nil {
		return order.Order{}, err
	}
	metrics.OrdersTotal.WithLabelValues("shipped").Inc()
	metrics.Revenue.Set(s.ledger.TotalRevenue().InexactFloat64())
	return o, s.flush(ctx)
}

func (s *Service) OrderByID(id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.OrderByID(id)
}

func (s *Service) Orders() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Orders()
}

func (s *Service) PendingOrders() []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.PendingOrders()
}

func (s *Service) OrdersForCustomer(username string) []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.OrdersForCustomer(username)
}

// --- Accounts ---

// RegisterCustomer creates a customer account.
func (s *Service) RegisterCustomer(ctx context.Context, username, password, address, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.RegisterUser(ledger.NewCustomer(username, password, address, phone)); err != nil {
		return err
	}
	return s.flush(ctx)
}

// RegisterAdmin creates an admin account.
func (s *Service) RegisterAdmin(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.RegisterUser(ledger.NewAdmin(username, password)); err != nil {
		return err
	}
	return s.flush(ctx)
}

// Login authenticates the credentials and returns the account.
func (s *Service) Login(username, password string) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Authenticate(username, password)
}

// UpdateContactInfo replaces a customer's address and phone.
func (s *Service) UpdateContactInfo(ctx context.Context, username, address, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ledger.UpdateContactInfo(username, address, phone); err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *Service) Customers() []ledger.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Customers()
}

// --- Reviews ---

// AddReview attaches a review from a registered account to an existing
// item. The rating is clamped into [1,5].
func (s *Service) AddReview(ctx context.Context, itemID, username string, rating int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ledger.ItemByID(itemID); err != nil {
		return err
	}
	if _, err := s.ledger.UserByName(username); err != nil {
		return err
	}
	s.ledger.AddReview(ledger.NewReview(itemID, username, rating, comment))
	return s.flush(ctx)
}

func (s *Service) ReviewsForItem(itemID string) []ledger.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ReviewsForItem(itemID)
}

// --- Statistics ---

// TotalRevenue sums CONFIRMED and SHIPPED order totals.
func (s *Service) TotalRevenue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TotalRevenue()
}

// TopSelling returns the n most popular items.
func (s *Service) TopSelling(n int) []catalog.PricedBook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TopSelling(n)
}

// CategorySales groups sold quantities by category at purchase time.
func (s *Service) CategorySales() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CategorySales()
}

// OrderCount returns the number of orders ever placed.
func (s *Service) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.OrderCount()
}
