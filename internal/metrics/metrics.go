// Package metrics provides Prometheus instrumentation for the bookstore
// ledger.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersTotal counts order lifecycle events, partitioned by event
	// (placed, confirmed, shipped, cancelled).
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_orders_total",
		Help: "Total order lifecycle events",
	}, []string{"event"})

	// SnapshotFlushes counts full-collection persistence flushes.
	SnapshotFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_snapshot_flushes_total",
		Help: "Total full-state snapshot flushes",
	})

	// SnapshotFailures counts failed persistence flushes.
	SnapshotFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_snapshot_failures_total",
		Help: "Total failed snapshot flushes",
	})

	// CatalogSize tracks the number of items in the catalog.
	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookstore_catalog_size",
		Help: "Number of items currently in the catalog",
	})

	// Revenue tracks total revenue over confirmed and shipped orders.
	Revenue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookstore_revenue",
		Help: "Total revenue across confirmed and shipped orders",
	})

	// CancelRestoreSkipped counts cancellation lines whose stock could
	// not be restored because the item had been deleted.
	CancelRestoreSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_cancel_restore_skipped_total",
		Help: "Order cancellation lines skipped because the item no longer exists",
	})

	// LegacyUserInferences counts user records loaded without a type
	// discriminator and repaired heuristically.
	LegacyUserInferences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_legacy_user_inferences_total",
		Help: "User records loaded with a heuristically inferred type",
	})
)

// Handler returns the Prometheus metrics HTTP handler for the ops
// endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
