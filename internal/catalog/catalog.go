// Package catalog defines the composed catalog item: a base book plus an
// independent set of promotion attributes (featured, discounted) that
// together determine the effective price and display flags.
//
// All monetary values use shopspring/decimal — never float64 for money.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
)

// Book holds the base catalog fields. It is owned by the ledger and
// mutated only through PricedBook setters or ledger operations.
type Book struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Category   string          `json:"category"`
	Stock      int             `json:"stock"`
	Edition    string          `json:"edition"`
	CoverRef   string          `json:"cover_ref"`
	Popularity int             `json:"popularity"`
}

// Promotions is the tagged promotion set attached to a book. The zero
// value means no promotions. Discount is a fraction in [0,1); zero means
// not discounted. At most one discount and one featured mark can exist
// per book — the representation makes stacking impossible.
type Promotions struct {
	Featured bool            `json:"featured"`
	Discount decimal.Decimal `json:"discount"`
}

// PricedBook is a view over a shared base book plus its promotions.
// Copies of a PricedBook share the same underlying base: mutations
// through any view reach the single base book, while promotion
// attributes travel with the view.
type PricedBook struct {
	base   *Book
	promos Promotions
}

// New wraps a base book with no promotions. The book is copied; the
// caller's value is not retained.
func New(base Book) PricedBook {
	b := base
	return PricedBook{base: &b}
}

// Feature marks the book as featured. Featuring never alters price and
// is idempotent.
func Feature(p PricedBook) PricedBook {
	p.promos.Featured = true
	return p
}

// Discount applies a discount fraction in [0,1). Applying a second
// discount is not a supported configuration and fails.
func Discount(p PricedBook, fraction decimal.Decimal) (PricedBook, error) {
	if fraction.IsNegative() || fraction.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return PricedBook{}, fmt.Errorf("%w: discount fraction %s outside [0,1)", errs.ErrValidation, fraction)
	}
	if p.IsDiscounted() {
		return PricedBook{}, fmt.Errorf("%w: book %s is already discounted", errs.ErrValidation, p.ID())
	}
	p.promos.Discount = fraction
	return p, nil
}

// --- Price and flag queries ---

// EffectivePrice returns the price after any discount:
// basePrice * (1 - discount). Without a discount it equals the base price.
func (p PricedBook) EffectivePrice() decimal.Decimal {
	if !p.IsDiscounted() {
		return p.base.BasePrice
	}
	one := decimal.NewFromInt(1)
	return p.base.BasePrice.Mul(one.Sub(p.promos.Discount))
}

// OriginalPrice returns the undiscounted base price regardless of
// promotions, for strikethrough comparisons.
func (p PricedBook) OriginalPrice() decimal.Decimal { return p.base.BasePrice }

func (p PricedBook) IsFeatured() bool   { return p.promos.Featured }
func (p PricedBook) IsDiscounted() bool { return p.promos.Discount.IsPositive() }

// DiscountPercent returns the discount as a display percentage, rounded
// to two places. Display only; arithmetic uses DiscountFraction.
func (p PricedBook) DiscountPercent() decimal.Decimal {
	return p.promos.Discount.Mul(decimal.NewFromInt(100)).Round(2)
}

// DiscountFraction returns the exact discount fraction (zero when not
// discounted).
func (p PricedBook) DiscountFraction() decimal.Decimal { return p.promos.Discount }

// --- Base field accessors ---

func (p PricedBook) ID() string       { return p.base.ID }
func (p PricedBook) Title() string    { return p.base.Title }
func (p PricedBook) Author() string   { return p.base.Author }
func (p PricedBook) Category() string { return p.base.Category }
func (p PricedBook) Stock() int       { return p.base.Stock }
func (p PricedBook) Edition() string  { return p.base.Edition }
func (p PricedBook) CoverRef() string { return p.base.CoverRef }
func (p PricedBook) Popularity() int  { return p.base.Popularity }

// Base returns a copy of the underlying base book.
func (p PricedBook) Base() Book { return *p.base }

// --- Mutations (reach the shared base through any view) ---

func (p PricedBook) SetTitle(title string)       { p.base.Title = title }
func (p PricedBook) SetAuthor(author string)     { p.base.Author = author }
func (p PricedBook) SetCategory(category string) { p.base.Category = category }
func (p PricedBook) SetEdition(edition string)   { p.base.Edition = edition }
func (p PricedBook) SetCoverRef(ref string)      { p.base.CoverRef = ref }

func (p PricedBook) SetBasePrice(price decimal.Decimal) { p.base.BasePrice = price }

func (p PricedBook) SetStock(stock int) { p.base.Stock = stock }

// AddPopularity adjusts the popularity counter by delta, clamped at a
// floor of zero.
func (p PricedBook) AddPopularity(delta int) {
	p.base.Popularity += delta
	if p.base.Popularity < 0 {
		p.base.Popularity = 0
	}
}

// Clone returns a detached deep copy. Mutations on the clone do not
// reach the original base book. Query operations hand out clones so
// callers never hold live references.
func (p PricedBook) Clone() PricedBook {
	b := *p.base
	return PricedBook{base: &b, promos: p.promos}
}
