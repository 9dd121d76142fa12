// Package errs defines the error kinds shared across the bookstore.
// Callers classify failures with errors.Is; operations wrap these
// sentinels with context via fmt.Errorf and %w.
package errs

import "errors"

var (
	// ErrValidation covers bad input: insufficient stock, empty cart,
	// malformed numeric fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers unknown item, order, or customer ids.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState covers illegal lifecycle transitions, e.g.
	// cancelling a shipped order.
	ErrInvalidState = errors.New("invalid state")

	// ErrPersistence covers I/O failures on snapshot read or write.
	ErrPersistence = errors.New("persistence failure")
)
