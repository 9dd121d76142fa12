// Package persist maps the composed in-memory object graph to flat,
// self-describing records and back. Each entity collection is one blob
// in the store; every mutating operation re-serializes all collections
// in full.
package persist

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SaiffMoh/SDP-BookStore/internal/catalog"
	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
	"github.com/SaiffMoh/SDP-BookStore/internal/ledger"
	"github.com/SaiffMoh/SDP-BookStore/internal/metrics"
	"github.com/SaiffMoh/SDP-BookStore/internal/order"
)

// User type discriminator values.
const (
	userTypeAdmin    = "ADMIN"
	userTypeCustomer = "CUSTOMER"
)

// ItemRecord is the flat form of one composed catalog item. The
// featuredFlag and discountFraction fields carry the composition
// metadata the base item does not store.
type ItemRecord struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Author           string          `json:"author"`
	BasePrice        decimal.Decimal `json:"basePrice"`
	Category         string          `json:"category"`
	Stock            int             `json:"stock"`
	Edition          string          `json:"edition"`
	CoverRef         string          `json:"coverRef"`
	Popularity       int             `json:"popularity"`
	FeaturedFlag     bool            `json:"featuredFlag"`
	DiscountFraction decimal.Decimal `json:"discountFraction"`
}

// OrderItemRecord is the flat form of one order line snapshot.
type OrderItemRecord struct {
	ItemID    string          `json:"itemId"`
	Title     string          `json:"titleAtPurchase"`
	Author    string          `json:"authorAtPurchase"`
	Category  string          `json:"categoryAtPurchase"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPriceAtPurchase"`
}

// OrderRecord is the flat form of one order.
type OrderRecord struct {
	OrderID     string            `json:"orderId"`
	CustomerRef string            `json:"customerRef"`
	Items       []OrderItemRecord `json:"items"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// UserRecord is the flat form of one account. UserType is the
// discriminator; legacy records predate it and leave it empty.
type UserRecord struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	UserType   string   `json:"userType,omitempty"`
	Address    string   `json:"address,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	OrderRefs  []string `json:"orderHistoryRefs,omitempty"`
	ReviewRefs []string `json:"reviewRefs,omitempty"`
}

// ReviewRecord is the flat form of one review.
type ReviewRecord struct {
	ItemID           string    `json:"itemId"`
	CustomerUsername string    `json:"customerUsername"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ConfigRecord carries process-level counters, currently just the next
// numeric suffix for generated order ids.
type ConfigRecord struct {
	OrderIDCounter int `json:"orderIdCounter"`
}

// --- Items ---

// FlattenItem produces the flat record for a composed item. Promotion
// metadata is obtained by querying the composition, not by inspecting
// its representation.
func FlattenItem(p catalog.PricedBook) ItemRecord {
	base := p.Base()
	return ItemRecord{
		ID:               base.ID,
		Title:            base.Title,
		Author:           base.Author,
		BasePrice:        base.BasePrice,
		Category:         base.Category,
		Stock:            base.Stock,
		Edition:          base.Edition,
		CoverRef:         base.CoverRef,
		Popularity:       base.Popularity,
		FeaturedFlag:     p.IsFeatured(),
		DiscountFraction: p.DiscountFraction(),
	}
}

// ReconstructItem rebuilds the composition from a flat record: the base
// item, wrapped with Discounted when discountFraction > 0, then with
// Featured when featuredFlag is set. Wrap order is fixed.
func ReconstructItem(rec ItemRecord) (catalog.PricedBook, error) {
	p := catalog.New(catalog.Book{
		ID:         rec.ID,
		Title:      rec.Title,
		Author:     rec.Author,
		BasePrice:  rec.BasePrice,
		Category:   rec.Category,
		Stock:      rec.Stock,
		Edition:    rec.Edition,
		CoverRef:   rec.CoverRef,
		Popularity: rec.Popularity,
	})
	if rec.DiscountFraction.IsPositive() {
		var err error
		p, err = catalog.Discount(p, rec.DiscountFraction)
		if err != nil {
			return catalog.PricedBook{}, fmt.Errorf("%w: item %s: %v",
				errs.ErrPersistence, rec.ID, err)
		}
	}
	if rec.FeaturedFlag {
		p = catalog.Feature(p)
	}
	return p, nil
}

// --- Orders ---

func flattenOrder(o order.Order) OrderRecord {
	items := make([]OrderItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemRecord{
			ItemID:    it.ItemID,
			Title:     it.Title,
			Author:    it.Author,
			Category:  it.Category,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return OrderRecord{
		OrderID:     o.ID,
		CustomerRef: o.CustomerRef,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}

func reconstructOrder(rec OrderRecord) (order.Order, error) {
	status := order.Status(rec.Status)
	if !status.Valid() {
		return order.Order{}, fmt.Errorf("%w: order %s has unknown status %q",
			errs.ErrPersistence, rec.OrderID, rec.Status)
	}
	items := make([]order.ItemSnapshot, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, order.ItemSnapshot{
			ItemID:    it.ItemID,
			Title:     it.Title,
			Author:    it.Author,
			Category:  it.Category,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return order.Order{
		ID:          rec.OrderID,
		CustomerRef: rec.CustomerRef,
		Items:       items,
		TotalAmount: rec.TotalAmount,
		Status:      status,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

// --- Users ---

func flattenUser(u ledger.User) UserRecord {
	rec := UserRecord{
		Username: u.Username,
		Password: u.Password,
		UserType: userTypeCustomer,
	}
	if u.Admin {
		rec.UserType = userTypeAdmin
		return rec
	}
	rec.Address = u.Address
	rec.Phone = u.Phone
	rec.OrderRefs = u.OrderRefs
	rec.ReviewRefs = u.ReviewRefs
	return rec
}

// reconstructUser rebuilds an account from its record. Records missing
// the userType discriminator are legacy data: the type is inferred
// (username "admin", or no populated customer-only fields, means admin)
// and the repair is flagged to the operator. The heuristic lives only
// here so a hard schema-version field can replace it without touching
// the rest of the model.
func reconstructUser(rec UserRecord) ledger.User {
	admin := false
	switch rec.UserType {
	case userTypeAdmin:
		admin = true
	case userTypeCustomer:
		admin = false
	default:
		admin = rec.Username == "admin" ||
			(rec.Address == "" && rec.Phone == "" &&
				len(rec.OrderRefs) == 0 && len(rec.ReviewRefs) == 0)
		slog.Warn("user record missing type discriminator, inferred",
			"username", rec.Username, "inferred_admin", admin)
		metrics.LegacyUserInferences.Inc()
	}

	if admin {
		return ledger.NewAdmin(rec.Username, rec.Password)
	}
	u := ledger.NewCustomer(rec.Username, rec.Password, rec.Address, rec.Phone)
	u.OrderRefs = append([]string(nil), rec.OrderRefs...)
	u.ReviewRefs = append([]string(nil), rec.ReviewRefs...)
	return u
}

// --- Reviews ---

func flattenReview(r ledger.Review) ReviewRecord {
	return ReviewRecord{
		ItemID:           r.ItemID,
		CustomerUsername: r.CustomerUsername,
		Rating:           r.Rating,
		Comment:          r.Comment,
		CreatedAt:        r.CreatedAt,
	}
}

func reconstructReview(rec ReviewRecord) ledger.Review {
	return ledger.Review{
		ItemID:           rec.ItemID,
		CustomerUsername: rec.CustomerUsername,
		Rating:           rec.Rating,
		Comment:          rec.Comment,
		CreatedAt:        rec.CreatedAt,
	}
}
