// Package orders implements the order core: the reservation initiator that
// creates pending orders while reserving inventory, and the finalization
// engine that converts verified payment facts into completed orders.  All
// coordination happens through store transactions; the service keeps no
// in-process state, so any number of concurrent request handlers may call
// into it.
package orders

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/p2p-marketplace/internal/payment"
    q "github.com/iliyamo/p2p-marketplace/internal/queue"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// Publisher is the broker surface the engine needs: completion events for
// downstream consumers and reconciliation alerts for the manual queue.
// Broker failures are logged by the implementation and never block an
// order transition.
type Publisher interface {
    PublishOrderCompleted(ctx context.Context, event q.OrderCompletedEvent) error
    PublishReconciliationAlert(ctx context.Context, event q.ReconciliationAlertEvent) error
}

// Service wires the repositories, the payment intent client and the event
// publisher into the order operations.  Construct it once at startup with
// New and share it across handlers.
type Service struct {
    db      *sql.DB
    items   *repository.ItemRepo
    orders  *repository.OrderRepo
    users   *repository.UserRepo
    intents payment.IntentClient
    pub     Publisher

    chainID       int64
    shippingCents uint32
    now           func() time.Time // injectable for tests
}

// New constructs a Service.  The intent client may be nil when the card
// path is disabled; every other dependency must be non-nil.
func New(db *sql.DB, items *repository.ItemRepo, orders *repository.OrderRepo, users *repository.UserRepo,
    intents payment.IntentClient, pub Publisher, chainID int64, shippingCents uint32) *Service {
    if db == nil || items == nil || orders == nil || users == nil || pub == nil {
        panic("nil dependency passed to orders.New")
    }
    return &Service{
        db:            db,
        items:         items,
        orders:        orders,
        users:         users,
        intents:       intents,
        pub:           pub,
        chainID:       chainID,
        shippingCents: shippingCents,
        now:           time.Now,
    }
}
