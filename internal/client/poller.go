// Package client implements the post-payment polling protocol a frontend
// follows after submitting a payment: ask for the order's status on a
// fixed interval until it leaves pending or the attempt budget runs out.
package client

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/p2p-marketplace/internal/model"
)

// StatusFunc fetches the current status of an order.  Implementations
// typically wrap an HTTP call to GET /v1/orders/:id/status.
type StatusFunc func(ctx context.Context, orderID string) (model.OrderStatus, error)

// ErrPollTimeout is returned when the attempt budget is exhausted while
// the order is still pending.  The payment may yet land; the buyer should
// check the order page rather than pay again.
var ErrPollTimeout = errors.New("order is taking longer than expected; check the order page before retrying payment")

// Options bounds a polling session.  The zero value is not usable; use
// DefaultOptions for the standard budget of 30 attempts 3 seconds apart,
// about 90 seconds of waiting.
type Options struct {
    Interval    time.Duration
    MaxAttempts int
    // Sleep is swapped out in tests; nil means time.Sleep honoring ctx.
    Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns the standard polling budget.
func DefaultOptions() Options {
    return Options{Interval: 3 * time.Second, MaxAttempts: 30}
}

// WaitForCompletion polls fetch until the order reaches a terminal status
// or the budget runs out.  It returns the terminal status on success, an
// error for cancelled or refunded orders, and ErrPollTimeout if the order
// is still pending after the final attempt.
//
// Transient fetch errors consume an attempt but do not abort the session:
// a single dropped poll must not strand a buyer whose payment went
// through.  Context cancellation aborts immediately.
func WaitForCompletion(ctx context.Context, orderID string, fetch StatusFunc, opts Options) (model.OrderStatus, error) {
    if opts.Interval <= 0 || opts.MaxAttempts <= 0 {
        return "", fmt.Errorf("invalid polling options: interval %s, max attempts %d", opts.Interval, opts.MaxAttempts)
    }
    sleep := opts.Sleep
    if sleep == nil {
        sleep = func(ctx context.Context, d time.Duration) error {
            t := time.NewTimer(d)
            defer t.Stop()
            select {
            case <-ctx.Done():
                return ctx.Err()
            case <-t.C:
                return nil
            }
        }
    }

    for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
        status, err := fetch(ctx, orderID)
        switch {
        case err != nil:
            if ctx.Err() != nil {
                return "", ctx.Err()
            }
            log.Printf("[poll] attempt %d/%d for order %s failed: %v", attempt, opts.MaxAttempts, orderID, err)
        case status == model.OrderCompleted:
            return status, nil
        case status == model.OrderCancelled, status == model.OrderRefunded:
            return status, fmt.Errorf("order %s ended as %s", orderID, status)
        }

        if attempt == opts.MaxAttempts {
            break
        }
        if err := sleep(ctx, opts.Interval); err != nil {
            return "", err
        }
    }
    return model.OrderPending, ErrPollTimeout
}
