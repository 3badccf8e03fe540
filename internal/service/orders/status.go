package orders

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/p2p-marketplace/internal/model"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// CheckOrderStatus returns the current status of an order owned by the
// given buyer.  It is a plain committed read: finalization runs in its own
// transaction, so a poller either sees pending or the fully applied
// terminal state, never a half-finished one.
func (s *Service) CheckOrderStatus(ctx context.Context, orderID, buyerID string) (model.OrderStatus, error) {
    return s.orders.GetStatusForBuyer(ctx, orderID, buyerID)
}

// CancelPendingOrder cancels a pending order on behalf of its buyer and
// releases the reserved item back to available.  The order row is locked
// for the duration, so a finalization racing the cancel serializes: whoever
// wins the lock decides the terminal state and the loser observes it.
func (s *Service) CancelPendingOrder(ctx context.Context, orderID, buyerID string) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := s.orders.GetForUpdateTx(ctx, tx, orderID)
    if err != nil {
        return err
    }
    // Ownership is checked after the lookup but reported as not-found so
    // the endpoint does not leak which order IDs exist.
    if order.BuyerID != buyerID {
        return repository.ErrOrderNotFound
    }

    switch order.Status {
    case model.OrderCancelled:
        // Repeated cancel of an already cancelled order is a no-op.
        return nil
    case model.OrderCompleted, model.OrderRefunded:
        return repository.ErrConflict
    }

    if err := s.orders.UpdateStatusTx(ctx, tx, order.ID, model.OrderCancelled); err != nil {
        return err
    }
    if err := s.items.UpdateStatusTx(ctx, tx, order.ItemID, model.ItemAvailable); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    log.Printf("orders: order %s cancelled by buyer, item %s released", order.ID, order.ItemID)
    return nil
}

// ExpirePendingOrders cancels crypto orders that have sat pending longer
// than olderThan and releases their items.  It is the cleanup half of the
// reservation protocol: a buyer who reserved an item and never sent funds
// must not hold it forever.  Returns the number of orders expired.
func (s *Service) ExpirePendingOrders(ctx context.Context, olderThan time.Duration) (int, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cutoff := s.now().UTC().Add(-olderThan)
    refs, err := s.orders.ListExpiredPendingTx(ctx, tx, cutoff)
    if err != nil {
        return 0, err
    }
    if len(refs) == 0 {
        return 0, nil
    }

    for _, ref := range refs {
        if err := s.orders.UpdateStatusTx(ctx, tx, ref.OrderID, model.OrderCancelled); err != nil {
            return 0, err
        }
        if err := s.items.UpdateStatusTx(ctx, tx, ref.ItemID, model.ItemAvailable); err != nil {
            // The item may have been sold through a different order in the
            // meantime; a missing row is not a reason to abort the sweep.
            if errors.Is(err, repository.ErrItemNotFound) {
                continue
            }
            return 0, err
        }
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    log.Printf("orders: expired %d pending crypto orders older than %s", len(refs), olderThan)
    return len(refs), nil
}
