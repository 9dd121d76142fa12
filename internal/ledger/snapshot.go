package ledger

import (
	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/order"
)

// Snapshot is a detached copy of every ledger collection, the exchange
// format between the ledger and the persistence layer. OrderCounter is
// the next numeric suffix for generated order ids.
type Snapshot struct {
	Items        []catalog.PricedBook
	Orders       []order.Order
	Users        []User
	Reviews      []Review
	Categories   []string
	OrderCounter int
}

// Snapshot returns copies of all collections.
func (l *Ledger) Snapshot() Snapshot {
	users := make([]User, 0, len(l.users))
	for i := range l.users {
		users = append(users, l.users[i].clone())
	}
	return Snapshot{
		Items:        l.Items(),
		Orders:       l.Orders(),
		Users:        users,
		Reviews:      l.Reviews(),
		Categories:   l.Categories(),
		OrderCounter: l.orderCounter,
	}
}

// FromSnapshot rebuilds a ledger from a snapshot, e.g. at process
// start. The snapshot's collections are copied in; the counter is
// clamped to its start value so a missing or zeroed config record can
// never recycle order ids below the reserved range.
func FromSnapshot(s Snapshot) *Ledger {
	l := New()
	for i := range s.Items {
		l.AddItem(s.Items[i])
	}
	for _, c := range s.Categories {
		l.AddCategory(c)
	}
	for i := range s.Orders {
		l.orders = append(l.orders, s.Orders[i].Clone())
	}
	for i := range s.Users {
		l.users = append(l.users, s.Users[i].clone())
	}
	l.reviews = append(l.reviews, s.Reviews...)
	if s.OrderCounter > orderCounterStart {
		l.orderCounter = s.OrderCounter
	}
	metrics.CatalogSize.Set(float64(len(l.items)))
	metrics.Revenue.Set(l.TotalRevenue().InexactFloat64())
	return l
}
