// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL driver errors. For example, ErrItemNotAvailable is the
// expected outcome when two buyers race for the same item and one loses.
package repository

import "errors"

// ErrItemNotFound is returned when a lookup references an item that does
// not exist. Handlers should translate this into an HTTP 404 response.
var ErrItemNotFound = errors.New("item not found")

// ErrItemNotAvailable is returned when an order is attempted against an
// item that is already reserved or sold. This is an expected race-lost
// outcome under concurrency, not a fault; callers surface it and never
// retry automatically. Handlers should translate this into HTTP 409.
var ErrItemNotAvailable = errors.New("item not available")

// ErrOrderNotFound is returned when a lookup by order ID, payment intent
// ID or transaction hash matches no order row.
var ErrOrderNotFound = errors.New("order not found")

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrSellerWalletMissing is returned when a crypto order is attempted
// against an item whose seller has not configured a payout wallet.
// Handlers should translate this into HTTP 422.
var ErrSellerWalletMissing = errors.New("seller wallet not configured")

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as cancelling an order that has already
// completed. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
