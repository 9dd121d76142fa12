package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func testBook() Book {
	return Book{
		ID:        "B1",
		Title:     "Clean Code",
		Author:    "Robert Martin",
		BasePrice: d(50.00),
		Category:  "IT",
		Stock:     10,
		Edition:   "1st Edition",
		CoverRef:  "clean_code.jpg",
	}
}

func TestEffectivePrice_NoPromotions(t *testing.T) {
	p := New(testBook())

	if !p.EffectivePrice().Equal(d(50.00)) {
		t.Errorf("expected effective price 50.00, got %s", p.EffectivePrice())
	}
	if !p.EffectivePrice().Equal(p.OriginalPrice()) {
		t.Error("undiscounted book should have effective == original price")
	}
	if p.IsFeatured() || p.IsDiscounted() {
		t.Error("plain book should carry no promotion flags")
	}
}

func TestDiscountedAndFeatured(t *testing.T) {
	// The worked example: 50.00 base, 20% off, featured.
	p, err := Discount(New(testBook()), d(0.20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p = Feature(p)

	if !p.EffectivePrice().Equal(d(40.00)) {
		t.Errorf("expected effective price 40.00, got %s", p.EffectivePrice())
	}
	if !p.OriginalPrice().Equal(d(50.00)) {
		t.Errorf("expected original price 50.00, got %s", p.OriginalPrice())
	}
	if !p.IsFeatured() {
		t.Error("expected featured flag")
	}
	if !p.DiscountPercent().Equal(d(20)) {
		t.Errorf("expected discount percent 20, got %s", p.DiscountPercent())
	}
}

func TestWrapOrderDoesNotAffectPrice(t *testing.T) {
	a, err := Discount(Feature(New(testBook())), d(0.20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Discount(New(testBook()), d(0.20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b = Feature(b)

	if !a.EffectivePrice().Equal(b.EffectivePrice()) {
		t.Errorf("wrap order changed price: %s vs %s", a.EffectivePrice(), b.EffectivePrice())
	}
	if a.IsFeatured() != b.IsFeatured() || a.IsDiscounted() != b.IsDiscounted() {
		t.Error("wrap order changed flags")
	}
}

func TestEffectiveNeverExceedsOriginal(t *testing.T) {
	fractions := []float64{0, 0.01, 0.15, 0.5, 0.99}
	for _, f := range fractions {
		p := New(testBook())
		if f > 0 {
			var err error
			p, err = Discount(p, d(f))
			if err != nil {
				t.Fatalf("unexpected error for fraction %v: %v", f, err)
			}
		}
		if p.EffectivePrice().GreaterThan(p.OriginalPrice()) {
			t.Errorf("fraction %v: effective %s > original %s", f, p.EffectivePrice(), p.OriginalPrice())
		}
		equal := p.EffectivePrice().Equal(p.OriginalPrice())
		if equal == p.IsDiscounted() {
			t.Errorf("fraction %v: equality must hold iff not discounted", f)
		}
	}
}

func TestDiscount_InvalidFraction(t *testing.T) {
	for _, f := range []float64{-0.1, 1.0, 1.5} {
		_, err := Discount(New(testBook()), d(f))
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("expected ErrValidation for fraction %v, got %v", f, err)
		}
	}
}

func TestDiscount_StackingRejected(t *testing.T) {
	p, err := Discount(New(testBook()), d(0.10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Discount(p, d(0.20)); !errors.Is(err, errs.ErrValidation) {
		t.Errorf("expected ErrValidation for stacked discount, got %v", err)
	}
}

func TestFeature_Idempotent(t *testing.T) {
	p := Feature(Feature(New(testBook())))
	if !p.IsFeatured() {
		t.Error("expected featured flag")
	}
	if !p.EffectivePrice().Equal(d(50.00)) {
		t.Errorf("featuring must not alter price, got %s", p.EffectivePrice())
	}
}

func TestMutationsReachSharedBase(t *testing.T) {
	p := New(testBook())
	wrapped, err := Discount(Feature(p), d(0.15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutate through the wrapped view; read through the plain one.
	wrapped.SetStock(3)
	wrapped.AddPopularity(7)
	wrapped.SetTitle("Clean Code 2")

	if p.Stock() != 3 {
		t.Errorf("expected stock 3 through base view, got %d", p.Stock())
	}
	if p.Popularity() != 7 {
		t.Errorf("expected popularity 7 through base view, got %d", p.Popularity())
	}
	if p.Title() != "Clean Code 2" {
		t.Errorf("expected updated title through base view, got %s", p.Title())
	}
}

func TestAddPopularity_FloorsAtZero(t *testing.T) {
	p := New(testBook())
	p.AddPopularity(2)
	p.AddPopularity(-5)
	if p.Popularity() != 0 {
		t.Errorf("expected popularity floored at 0, got %d", p.Popularity())
	}
}

func TestClone_Detached(t *testing.T) {
	p := Feature(New(testBook()))
	c := p.Clone()
	c.SetStock(99)

	if p.Stock() == 99 {
		t.Error("mutating a clone must not reach the original base")
	}
	if !c.IsFeatured() {
		t.Error("clone should keep promotion attributes")
	}
}
