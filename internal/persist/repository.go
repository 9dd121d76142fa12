package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
	"github.com/SaiffMoh/SDP-BookStore/internal/ledger"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/order"
	"github.com/SaiffMoh/SDP-BookStore/internal/store"
)

// Collection names. Each is one blob in the store.
const (
	colItems      = "items"
	colOrders     = "orders"
	colUsers      = "users"
	colReviews    = "reviews"
	colCategories = "categories"
	colConfig     = "config"
)

// Repository flattens ledger snapshots into the blob store and rebuilds
// them at startup. Writes are always full re-serializations of every
// collection; there is no partial write and no cross-collection
// atomicity.
type Repository struct {
	store store.BlobStore
}

// NewRepository wraps a blob store.
func NewRepository(s store.BlobStore) *Repository {
	return &Repository{store: s}
}

// SaveAll flattens and writes every collection. The first failing write
// aborts the flush and is reported; the in-memory state is not rolled
// back.
func (r *Repository) SaveAll(ctx context.Context, snap ledger.Snapshot) error {
	items := make([]ItemRecord, 0, len(snap.Items))
	for _, p := range snap.Items {
		items = append(items, FlattenItem(p))
	}
	orders := make([]OrderRecord, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		orders = append(orders, flattenOrder(o))
	}
	users := make([]UserRecord, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, flattenUser(u))
	}
	reviews := make([]ReviewRecord, 0, len(snap.Reviews))
	for _, rv := range snap.Reviews {
		reviews = append(reviews, flattenReview(rv))
	}

	writes := []struct {
		collection string
		value      any
	}{
		{colItems, items},
		{colOrders, orders},
		{colUsers, users},
		{colReviews, reviews},
		{colCategories, snap.Categories},
		{colConfig, ConfigRecord{OrderIDCounter: snap.OrderCounter}},
	}

	for _, w := range writes {
		data, err := json.Marshal(w.value)
		if err != nil {
			metrics.SnapshotFailures.Inc()
			return fmt.Errorf("%w: encode %s: %v", errs.ErrPersistence, w.collection, err)
		}
		if err := r.store.Put(ctx, w.collection, data); err != nil {
			metrics.SnapshotFailures.Inc()
			return fmt.Errorf("%w: write %s: %v", errs.ErrPersistence, w.collection, err)
		}
	}
	metrics.SnapshotFlushes.Inc()
	return nil
}

// LoadAll reads and reconstructs every collection. A collection that
// was never written degrades to empty (first run, logged); any other
// read failure or corrupt blob raises ErrPersistence.
func (r *Repository) LoadAll(ctx context.Context) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	var itemRecs []ItemRecord
	if err := r.load(ctx, colItems, &itemRecs); err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Items = make([]catalog.PricedBook, 0, len(itemRecs))
	for _, rec := range itemRecs {
		p, err := ReconstructItem(rec)
		if err != nil {
			return ledger.Snapshot{}, err
		}
		snap.Items = append(snap.Items, p)
	}

	var orderRecs []OrderRecord
	if err := r.load(ctx, colOrders, &orderRecs); err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Orders = make([]order.Order, 0, len(orderRecs))
	for _, rec := range orderRecs {
		o, err := reconstructOrder(rec)
		if err != nil {
			return ledger.Snapshot{}, err
		}
		snap.Orders = append(snap.Orders, o)
	}

	var userRecs []UserRecord
	if err := r.load(ctx, colUsers, &userRecs); err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Users = make([]ledger.User, 0, len(userRecs))
	for _, rec := range userRecs {
		snap.Users = append(snap.Users, reconstructUser(rec))
	}

	var reviewRecs []ReviewRecord
	if err := r.load(ctx, colReviews, &reviewRecs); err != nil {
		return ledger.Snapshot{}, err
	}
	snap.Reviews = make([]ledger.Review, 0, len(reviewRecs))
	for _, rec := range reviewRecs {
		snap.Reviews = append(snap.Reviews, reconstructReview(rec))
	}

	if err := r.load(ctx, colCategories, &snap.Categories); err != nil {
		return ledger.Snapshot{}, err
	}

	var cfg ConfigRecord
	if err := r.load(ctx, colConfig, &cfg); err != nil {
		return ledger.Snapshot{}, err
	}
	snap.OrderCounter = cfg.OrderIDCounter

	return snap, nil
}

// load reads one collection into out. Absent collections leave out at
// its zero value.
func (r *Repository) load(ctx context.Context, collection string, out any) error {
	data, err := r.store.Get(ctx, collection)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("no saved collection, starting empty", "collection", collection)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", errs.ErrPersistence, collection, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", errs.ErrPersistence, collection, err)
	}
	return nil
}
