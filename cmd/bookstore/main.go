package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/bookstore"
	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/ledger"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/persist"
	"github.com/SaiffMoh/SDP-BookStore/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opsPort := os.Getenv("OPS_PORT")
	if opsPort == "" {
		opsPort = "9090"
	}

	// --- Initialize store ---
	var st store.BlobStore

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			slog.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
		st = pg
		slog.Info("connected to PostgreSQL")
	} else if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		st = store.NewRedisStore(redis.NewClient(opt))
		slog.Info("connected to Redis")
	} else {
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "./data"
		}
		ps, err := store.NewPebbleStore(dataDir)
		if err != nil {
			slog.Error("pebble open failed", "dir", dataDir, "err", err)
			os.Exit(1)
		}
		st = ps
		slog.Info("using local pebble store", "dir", dataDir)
	}
	defer st.Close()

	// --- Load persisted state ---
	repo := persist.NewRepository(st)
	snap, err := repo.LoadAll(context.Background())
	if err != nil {
		slog.Error("state load failed", "err", err)
		os.Exit(1)
	}
	led := ledger.FromSnapshot(snap)
	svc := bookstore.New(led, repo)

	if len(snap.Items) == 0 && len(snap.Users) == 0 {
		slog.Info("empty state, seeding initial catalog")
		if err := seed(context.Background(), svc); err != nil {
			slog.Error("seeding failed", "err", err)
			os.Exit(1)
		}
	}

	// --- Ops endpoints ---
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"bookstore","orders":%d}`, svc.OrderCount())
	})
	r.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         ":" + opsPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("bookstore ops listening", "port", opsPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("ops server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down bookstore...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("bookstore stopped")
}

// seed populates a first-run store with the starter catalog, the
// default admin account and the standard categories.
func seed(ctx context.Context, svc *bookstore.Service) error {
	d := decimal.NewFromFloat

	for _, c := range []string{"IT", "History", "Classics", "Science", "Fiction"} {
		if err := svc.AddCategory(ctx, c); err != nil {
			return err
		}
	}

	books := []catalog.Book{
		{ID: "B001", Title: "Clean Code", Author: "Robert Martin",
			BasePrice: d(50.00), Category: "IT", Stock: 10,
			Edition: "1st Edition", CoverRef: "clean_code.jpg"},
		{ID: "B002", Title: "Sapiens", Author: "Yuval Noah Harari",
			BasePrice: d(30.00), Category: "History", Stock: 25,
			Edition: "Paperback", CoverRef: "sapiens.jpg"},
		{ID: "B003", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald",
			BasePrice: d(15.00), Category: "Classics", Stock: 40,
			Edition: "Penguin Classics", CoverRef: "gatsby.jpg"},
		{ID: "B004", Title: "A Brief History of Time", Author: "Stephen Hawking",
			BasePrice: d(22.00), Category: "Science", Stock: 18,
			Edition: "10th Anniversary", CoverRef: "brief_history.jpg"},
		{ID: "B005", Title: "The Hobbit", Author: "J.R.R. Tolkien",
			BasePrice: d(20.00), Category: "Fiction", Stock: 30,
			Edition: "Illustrated", CoverRef: "hobbit.jpg"},
	}
	for _, b := range books {
		if err := svc.AddItem(ctx, catalog.New(b)); err != nil {
			return err
		}
	}

	// Starter promotions.
	if err := svc.DiscountItem(ctx, "B001", d(0.15)); err != nil {
		return err
	}
	if err := svc.FeatureItem(ctx, "B001"); err != nil {
		return err
	}
	if err := svc.DiscountItem(ctx, "B002", d(0.10)); err != nil {
		return err
	}
	if err := svc.FeatureItem(ctx, "B003"); err != nil {
		return err
	}
	if err := svc.DiscountItem(ctx, "B005", d(0.20)); err != nil {
		return err
	}

	return svc.RegisterAdmin(ctx, "admin", "admin123")
}
