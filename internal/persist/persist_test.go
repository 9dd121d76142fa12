package persist

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
	"github.com/SaiffMoh/SDP-BookStore/internal/ledger"
	"github.com/SaiffMoh/SDP-BookStore/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func baseBook() catalog.Book {
	return catalog.Book{
		ID: "B1", Title: "Clean Code", Author: "Robert Martin",
		BasePrice: d(50.00), Category: "IT", Stock: 10,
		Edition: "1st Edition", CoverRef: "clean_code.jpg", Popularity: 4,
	}
}

// --- Item flatten/reconstruct ---

func TestItemRoundTrip(t *testing.T) {
	plain := catalog.New(baseBook())
	discounted, err := catalog.Discount(catalog.New(baseBook()), d(0.20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	featured := catalog.Feature(catalog.New(baseBook()))
	both := catalog.Feature(discounted)

	for name, p := range map[string]catalog.PricedBook{
		"plain":      plain,
		"discounted": discounted,
		"featured":   featured,
		"both":       both,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ReconstructItem(FlattenItem(p))
			if err != nil {
				t.Fatalf("reconstruct failed: %v", err)
			}
			if !got.EffectivePrice().Equal(p.EffectivePrice()) {
				t.Errorf("effective price changed: %s vs %s", got.EffectivePrice(), p.EffectivePrice())
			}
			if got.IsFeatured() != p.IsFeatured() || got.IsDiscounted() != p.IsDiscounted() {
				t.Error("promotion flags changed across round trip")
			}
			if got.Base() != p.Base() {
				t.Errorf("base fields changed: %+v vs %+v", got.Base(), p.Base())
			}
		})
	}
}

func TestFlattenItem_DerivedFields(t *testing.T) {
	p, err := catalog.Discount(catalog.New(baseBook()), d(0.15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := FlattenItem(catalog.Feature(p))

	if !rec.FeaturedFlag {
		t.Error("expected featuredFlag set")
	}
	if !rec.DiscountFraction.Equal(d(0.15)) {
		t.Errorf("expected discountFraction 0.15, got %s", rec.DiscountFraction)
	}

	// Not discounted → fraction zero.
	rec = FlattenItem(catalog.New(baseBook()))
	if !rec.DiscountFraction.IsZero() {
		t.Errorf("expected zero discountFraction, got %s", rec.DiscountFraction)
	}
}

func TestReconstructItem_CorruptFraction(t *testing.T) {
	rec := FlattenItem(catalog.New(baseBook()))
	rec.DiscountFraction = d(1.5)

	_, err := ReconstructItem(rec)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Errorf("expected ErrPersistence for fraction out of range, got %v", err)
	}
}

// --- User reconstruction ---

func TestReconstructUser_WithDiscriminator(t *testing.T) {
	u := reconstructUser(UserRecord{Username: "alice", Password: "pw", UserType: "CUSTOMER", Address: "1 Main St"})
	if u.Admin {
		t.Error("expected customer")
	}
	if u.Address != "1 Main St" {
		t.Errorf("expected address preserved, got %q", u.Address)
	}

	u = reconstructUser(UserRecord{Username: "root", Password: "pw", UserType: "ADMIN"})
	if !u.Admin {
		t.Error("expected admin")
	}
}

func TestReconstructUser_LegacyInference(t *testing.T) {
	// Username "admin" → admin.
	if u := reconstructUser(UserRecord{Username: "admin", Password: "pw"}); !u.Admin {
		t.Error("expected admin inferred from username")
	}

	// No populated customer-only fields → admin.
	if u := reconstructUser(UserRecord{Username: "ops", Password: "pw"}); !u.Admin {
		t.Error("expected admin inferred from empty customer fields")
	}

	// Populated customer fields → customer.
	u := reconstructUser(UserRecord{Username: "alice", Password: "pw", Phone: "555"})
	if u.Admin {
		t.Error("expected customer inferred from populated phone")
	}

	u = reconstructUser(UserRecord{Username: "bob", Password: "pw", OrderRefs: []string{"ORD1000"}})
	if u.Admin {
		t.Error("expected customer inferred from order history")
	}
}

// --- Repository ---

func seededSnapshot(t *testing.T) ledger.Snapshot {
	t.Helper()
	l := ledger.New()
	p, err := catalog.Discount(catalog.New(baseBook()), d(0.20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.AddItem(catalog.Feature(p))
	l.AddItem(catalog.New(catalog.Book{
		ID: "B2", Title: "Sapiens", Author: "Yuval Harari",
		BasePrice: d(30.00), Category: "History", Stock: 25,
	}))
	if err := l.RegisterUser(ledger.NewAdmin("admin", "admin123")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.RegisterUser(ledger.NewCustomer("alice", "pw", "1 Main St", "555")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.PlaceOrder([]ledger.CartLine{{ItemID: "B1", Quantity: 2}}, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.AddReview(ledger.NewReview("B1", "alice", 4, "solid"))
	return l.Snapshot()
}

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(store.NewMemoryStore())
	snap := seededSnapshot(t)

	if err := repo.SaveAll(ctx, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	restored := ledger.FromSnapshot(loaded)

	it, err := restored.ItemByID("B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !it.EffectivePrice().Equal(d(40.00)) {
		t.Errorf("expected effective price 40.00 after reload, got %s", it.EffectivePrice())
	}
	if !it.IsFeatured() || !it.IsDiscounted() {
		t.Error("promotion composition lost across save/load")
	}
	if it.Stock() != 8 {
		t.Errorf("expected stock 8 after reload, got %d", it.Stock())
	}

	if restored.OrderCount() != 1 {
		t.Fatalf("expected 1 order after reload, got %d", restored.OrderCount())
	}
	o, err := restored.OrderByID("ORD1000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.TotalAmount.Equal(d(80.00)) {
		t.Errorf("expected order total 80.00, got %s", o.TotalAmount)
	}
	if o.Items[0].Title != "Clean Code" {
		t.Errorf("snapshot fields lost: %+v", o.Items[0])
	}

	if _, err := restored.Authenticate("alice", "pw"); err != nil {
		t.Errorf("customer lost across reload: %v", err)
	}
	if len(restored.ReviewsForItem("B1")) != 1 {
		t.Error("review lost across reload")
	}

	// Counter continues: next order id is ORD1001.
	next, err := restored.PlaceOrder([]ledger.CartLine{{ItemID: "B2", Quantity: 1}}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.ID != "ORD1001" {
		t.Errorf("expected ORD1001 after reload, got %s", next.ID)
	}
}

func TestRepository_FirstRunIsEmpty(t *testing.T) {
	repo := NewRepository(store.NewMemoryStore())
	snap, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("first-run load must not fail: %v", err)
	}
	if len(snap.Items) != 0 || len(snap.Orders) != 0 || len(snap.Users) != 0 {
		t.Errorf("expected empty snapshot on first run, got %+v", snap)
	}
}

func TestRepository_CorruptBlobFails(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	if err := ms.Put(ctx, "items", []byte("{not json")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := NewRepository(ms).LoadAll(ctx)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Errorf("expected ErrPersistence for corrupt blob, got %v", err)
	}
}

func TestRepository_UnknownOrderStatusFails(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	if err := ms.Put(ctx, "orders", []byte(`[{"orderId":"ORD1000","status":"LOST"}]`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := NewRepository(ms).LoadAll(ctx)
	if !errors.Is(err, errs.ErrPersistence) {
		t.Errorf("expected ErrPersistence for unknown status, got %v", err)
	}
}

// failingStore rejects every write.
type failingStore struct{ store.BlobStore }

func (f failingStore) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestRepository_WriteFailureSurfaces(t *testing.T) {
	repo := NewRepository(failingStore{store.NewMemoryStore()})
	err := repo.SaveAll(context.Background(), seededSnapshot(t))
	if !errors.Is(err, errs.ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}

func TestRepository_LegacyUsersBlob(t *testing.T) {
	// A users blob written before the userType discriminator existed.
	ctx := context.Background()
	ms := store.NewMemoryStore()
	legacy := `[{"username":"admin","password":"admin123"},` +
		`{"username":"alice","password":"pw","address":"1 Main St","phone":"555"}]`
	if err := ms.Put(ctx, "users", []byte(legacy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := NewRepository(ms).LoadAll(ctx)
	if err != nil {
		t.Fatalf("legacy load must not fail: %v", err)
	}
	if len(snap.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(snap.Users))
	}
	if !snap.Users[0].Admin {
		t.Error("expected admin inferred for username admin")
	}
	if snap.Users[1].Admin {
		t.Error("expected customer inferred for populated contact fields")
	}
}
