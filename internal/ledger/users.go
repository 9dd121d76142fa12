package ledger

import (
	"fmt"
	"time"

	"github.com/SaiffMoh/SDP-BookStore/internal/errs"
)

// User is an account known to the ledger. Admins carry no customer
// fields; customers additionally hold contact details plus references
// (ids, not owning links) to their orders and reviewed items.
type User struct {
	Username   string
	Password   string
	Admin      bool
	Address    string
	Phone      string
	OrderRefs  []string
	ReviewRefs []string
}

func (u User) clone() User {
	c := u
	c.OrderRefs = append([]string(nil), u.OrderRefs...)
	c.ReviewRefs = append([]string(nil), u.ReviewRefs...)
	return c
}

// NewCustomer builds a customer account.
func NewCustomer(username, password, address, phone string) User {
	return User{Username: username, Password: password, Address: address, Phone: phone}
}

// NewAdmin builds an admin account.
func NewAdmin(username, password string) User {
	return User{Username: username, Password: password, Admin: true}
}

// RegisterUser adds an account. Usernames are unique.
func (l *Ledger) RegisterUser(u User) error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is required", errs.ErrValidation)
	}
	for i := range l.users {
		if l.users[i].Username == u.Username {
			return fmt.Errorf("%w: username %s is taken", errs.ErrValidation, u.Username)
		}
	}
	l.users = append(l.users, u.clone())
	return nil
}

// Authenticate checks the credentials and returns a copy of the
// matching account.
func (l *Ledger) Authenticate(username, password string) (User, error) {
	for i := range l.users {
		if l.users[i].Username == username && l.users[i].Password == password {
			return l.users[i].clone(), nil
		}
	}
	return User{}, fmt.Errorf("%w: user %s", errs.ErrNotFound, username)
}

// UserByName returns a copy of the named account.
func (l *Ledger) UserByName(username string) (User, error) {
	for i := range l.users {
		if l.users[i].Username == username {
			return l.users[i].clone(), nil
		}
	}
	return User{}, fmt.Errorf("%w: user %s", errs.ErrNotFound, username)
}

// Customers returns copies of every non-admin account.
func (l *Ledger) Customers() []User {
	var out []User
	for i := range l.users {
		if !l.users[i].Admin {
			out = append(out, l.users[i].clone())
		}
	}
	return out
}

// UpdateContactInfo replaces a customer's address and phone.
func (l *Ledger) UpdateContactInfo(username, address, phone string) error {
	for i := range l.users {
		if l.users[i].Username == username {
			l.users[i].Address = address
			l.users[i].Phone = phone
			return nil
		}
	}
	return fmt.Errorf("%w: user %s", errs.ErrNotFound, username)
}

// AppendOrderRef records an order id on the customer's history.
func (l *Ledger) AppendOrderRef(username, orderID string) error {
	for i := range l.users {
		if l.users[i].Username == username {
			l.users[i].OrderRefs = append(l.users[i].OrderRefs, orderID)
			return nil
		}
	}
	return fmt.Errorf("%w: user %s", errs.ErrNotFound, username)
}

// Review is an append-only record attached to an item by a customer.
type Review struct {
	ItemID           string
	CustomerUsername string
	Rating           int
	Comment          string
	CreatedAt        time.Time
}

// NewReview builds a review, clamping the rating into [1,5].
func NewReview(itemID, customerUsername string, rating int, comment string) Review {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return Review{
		ItemID:           itemID,
		CustomerUsername: customerUsername,
		Rating:           rating,
		Comment:          comment,
		CreatedAt:        time.Now().UTC(),
	}
}

// AddReview appends a review and records the item ref on the reviewer,
// when the reviewer is known.
func (l *Ledger) AddReview(r Review) {
	l.reviews = append(l.reviews, r)
	for i := range l.users {
		if l.users[i].Username == r.CustomerUsername {
			l.users[i].ReviewRefs = append(l.users[i].ReviewRefs, r.ItemID)
			return
		}
	}
}

// ReviewsForItem returns the reviews for an item in insertion order.
func (l *Ledger) ReviewsForItem(itemID string) []Review {
	var out []Review
	for _, r := range l.reviews {
		if r.ItemID == itemID {
			out = append(out, r)
		}
	}
	return out
}

// Reviews returns a copy of every review.
func (l *Ledger) Reviews() []Review {
	return append([]Review(nil), l.reviews...)
}
