package orders

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/p2p-marketplace/internal/model"
    "github.com/iliyamo/p2p-marketplace/internal/payment"
    q "github.com/iliyamo/p2p-marketplace/internal/queue"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// FinalizeStatus is the machine-readable outcome of a finalize attempt.
type FinalizeStatus string

const (
    // StatusCompleted: the order was transitioned to completed and the
    // item to sold in this call.
    StatusCompleted FinalizeStatus = "completed"
    // StatusAlreadyProcessed: the order was completed by an earlier
    // delivery of the same payment fact.  Treated as success so the rail
    // stops retrying.
    StatusAlreadyProcessed FinalizeStatus = "already_processed"
    // StatusNoPendingOrder: no order matches the idempotency key.  For
    // crypto this is expected noise from unrelated transactions; for card
    // it means the payment succeeded before the order row existed.
    StatusNoPendingOrder FinalizeStatus = "no_pending_order"
    // StatusOrderNotPending: the order exists but a recovery flow already
    // moved it to cancelled or refunded.  Funds moved for a dead order;
    // requires manual reconciliation.
    StatusOrderNotPending FinalizeStatus = "order_not_pending"
    // StatusRecipientMismatch: the on-chain recipient is not the payout
    // wallet recorded on the order.
    StatusRecipientMismatch FinalizeStatus = "recipient_wallet_mismatch"
    // StatusAmountMismatch: the paid amount does not exactly equal the
    // amount recorded on the order.
    StatusAmountMismatch FinalizeStatus = "amount_mismatch"
    // StatusDBError: the transaction could not be applied; both rows are
    // unchanged and the delivery should be retried.
    StatusDBError FinalizeStatus = "db_error"
)

// FinalizeResult is returned by both finalization paths.  Webhook handlers
// translate it into the transport-level retry signal.
type FinalizeResult struct {
    Status  FinalizeStatus
    OrderID string
}

// Success reports whether the delivering rail should consider the event
// consumed.  Idempotent replays count as success.
func (r FinalizeResult) Success() bool {
    return r.Status == StatusCompleted || r.Status == StatusAlreadyProcessed
}

// Retryable reports whether the failure is transient and the rail should
// redeliver.  Logic and consistency failures are deliberately not
// retryable: no redelivery will change the outcome.
func (r FinalizeResult) Retryable() bool { return r.Status == StatusDBError }

// FinalizeCard applies a verified "payment succeeded" card event.  The
// whole operation — lookup by intent ID, idempotency check, amount check
// and the coupled order/item update — runs inside one transaction with the
// order row locked, so a duplicated delivery racing this one serializes
// behind the lock and observes the committed state.
func (s *Service) FinalizeCard(ctx context.Context, intentID string, amountCents int64) FinalizeResult {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        log.Printf("finalize-card: begin tx failed: %v", err)
        return FinalizeResult{Status: StatusDBError}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := s.orders.GetByPaymentIntentTx(ctx, tx, intentID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            // The rail confirmed a payment we have no order for: the
            // reservation step failed or never ran.  No retry will make
            // the row appear, so stop the redeliveries and alert.
            log.Printf("finalize-card: no order for payment intent %s", intentID)
            s.alert(ctx, q.ReconciliationAlertEvent{
                Kind:       q.AlertOrderNotFound,
                PaymentRef: intentID,
                Detail:     "card payment succeeded but no order records this intent",
            })
            return FinalizeResult{Status: StatusNoPendingOrder}
        }
        log.Printf("finalize-card: lookup failed for intent %s: %v", intentID, err)
        return FinalizeResult{Status: StatusDBError}
    }

    if order.Status == model.OrderCompleted {
        log.Printf("finalize-card: order %s already completed, skipping", order.ID)
        return FinalizeResult{Status: StatusAlreadyProcessed, OrderID: order.ID}
    }
    if order.Status != model.OrderPending {
        s.alert(ctx, q.ReconciliationAlertEvent{
            Kind:       q.AlertOrderNotPending,
            OrderID:    order.ID,
            PaymentRef: intentID,
            Actual:     string(order.Status),
            Detail:     "card payment succeeded for an order no longer pending",
        })
        return FinalizeResult{Status: StatusOrderNotPending, OrderID: order.ID}
    }
    if amountCents != int64(order.AmountPaidCents) {
        log.Printf("finalize-card: amount mismatch on order %s: charged %d, expected %d",
            order.ID, amountCents, order.AmountPaidCents)
        s.alert(ctx, q.ReconciliationAlertEvent{
            Kind:       q.AlertAmountMismatch,
            OrderID:    order.ID,
            PaymentRef: intentID,
            Expected:   centsString(order.AmountPaidCents),
            Actual:     fmt.Sprintf("$%d.%02d", amountCents/100, amountCents%100),
        })
        return FinalizeResult{Status: StatusAmountMismatch, OrderID: order.ID}
    }

    if err := s.complete(ctx, tx, order); err != nil {
        log.Printf("finalize-card: completing order %s failed: %v", order.ID, err)
        return FinalizeResult{Status: StatusDBError, OrderID: order.ID}
    }
    committed = true
    s.publishCompleted(ctx, order)
    log.Printf("finalize-card: order %s completed, item %s sold", order.ID, order.ItemID)
    return FinalizeResult{Status: StatusCompleted, OrderID: order.ID}
}

// FinalizeCrypto applies a verified on-chain transfer.  The caller invokes
// it only for transactions whose on-chain execution status is success; a
// reverted transaction never reaches the engine.  Checks run cheapest and
// safest first — idempotency, recipient, amount — and any failure
// short-circuits with zero writes before the coupled commit.
func (s *Service) FinalizeCrypto(ctx context.Context, chainTx payment.ChainTx) FinalizeResult {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        log.Printf("finalize-crypto: begin tx failed: %v", err)
        return FinalizeResult{Status: StatusDBError}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := s.orders.GetByTxHashTx(ctx, tx, chainTx.Hash)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            // Expected for blocks full of unrelated transactions; logged
            // at info level so the feed does not alarm-fatigue anyone.
            log.Printf("finalize-crypto: unrecognized hash %s, skipping", chainTx.Hash)
            return FinalizeResult{Status: StatusNoPendingOrder}
        }
        log.Printf("finalize-crypto: lookup failed for hash %s: %v", chainTx.Hash, err)
        return FinalizeResult{Status: StatusDBError}
    }

    if order.Status == model.OrderCompleted {
        log.Printf("finalize-crypto: order %s already completed, skipping", order.ID)
        return FinalizeResult{Status: StatusAlreadyProcessed, OrderID: order.ID}
    }
    if order.Status != model.OrderPending {
        s.alert(ctx, q.ReconciliationAlertEvent{
            Kind:       q.AlertOrderNotPending,
            OrderID:    order.ID,
            PaymentRef: chainTx.Hash,
            Actual:     string(order.Status),
            Detail:     "on-chain payment confirmed for an order no longer pending",
        })
        return FinalizeResult{Status: StatusOrderNotPending, OrderID: order.ID}
    }

    // Recipient check: the funds must have gone to the payout wallet
    // recorded at reservation time.  Comparison is case-insensitive —
    // checksummed and lowercase forms of the same address are equal.
    recorded := ""
    if order.SellerWalletAddress != nil {
        recorded = *order.SellerWalletAddress
    }
    if recorded == "" || !payment.SameAddress(chainTx.To, recorded) {
        log.Printf("finalize-crypto: recipient mismatch on order %s: paid to %s, recorded %s",
            order.ID, chainTx.To, recorded)
        s.alert(ctx, q.ReconciliationAlertEvent{
            Kind:       q.AlertRecipientMismatch,
            OrderID:    order.ID,
            PaymentRef: chainTx.Hash,
            Expected:   recorded,
            Actual:     chainTx.To,
        })
        return FinalizeResult{Status: StatusRecipientMismatch, OrderID: order.ID}
    }

    // Amount check: exact rational equality between the wei actually
    // transferred and the ether amount recorded on the order.  Off by a
    // single wei is a mismatch.
    expected := ""
    if order.AmountPaidEth != nil {
        expected = *order.AmountPaidEth
    }
    wei, werr := payment.ParseWei(chainTx.Value)
    if werr != nil || expected == "" || !payment.AmountMatchesWei(expected, wei) {
        log.Printf("finalize-crypto: amount mismatch on order %s: sent %s wei, expected %s ETH",
            order.ID, chainTx.Value, expected)
        s.alert(ctx, q.ReconciliationAlertEvent{
            Kind:       q.AlertAmountMismatch,
            OrderID:    order.ID,
            PaymentRef: chainTx.Hash,
            Expected:   expected + " ETH",
            Actual:     chainTx.Value + " wei",
        })
        return FinalizeResult{Status: StatusAmountMismatch, OrderID: order.ID}
    }

    if err := s.complete(ctx, tx, order); err != nil {
        log.Printf("finalize-crypto: completing order %s failed: %v", order.ID, err)
        return FinalizeResult{Status: StatusDBError, OrderID: order.ID}
    }
    committed = true
    s.publishCompleted(ctx, order)
    log.Printf("finalize-crypto: order %s completed, item %s sold", order.ID, order.ItemID)
    return FinalizeResult{Status: StatusCompleted, OrderID: order.ID}
}

// complete applies the coupled transition — order to completed, item to
// sold — and commits.  Run with the order row already locked; any failure
// leaves both rows unchanged via the caller's rollback.
func (s *Service) complete(ctx context.Context, tx *sql.Tx, order *model.Order) error {
    if err := s.orders.UpdateStatusTx(ctx, tx, order.ID, model.OrderCompleted); err != nil {
        return err
    }
    if err := s.items.UpdateStatusTx(ctx, tx, order.ItemID, model.ItemSold); err != nil {
        return err
    }
    return tx.Commit()
}

func (s *Service) publishCompleted(ctx context.Context, order *model.Order) {
    ev := q.OrderCompletedEvent{
        OrderID:         order.ID,
        ItemID:          order.ItemID,
        BuyerID:         order.BuyerID,
        SellerID:        order.SellerID,
        PaymentMethod:   string(order.PaymentMethod),
        AmountPaidCents: order.AmountPaidCents,
        CompletedAt:     s.now().UTC().Format(time.RFC3339),
    }
    if err := s.pub.PublishOrderCompleted(ctx, ev); err != nil {
        log.Printf("orders: publishing completion event for %s failed: %v", order.ID, err)
    }
}

func (s *Service) alert(ctx context.Context, ev q.ReconciliationAlertEvent) {
    ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
    if err := s.pub.PublishReconciliationAlert(ctx, ev); err != nil {
        log.Printf("orders: publishing reconciliation alert failed: %v", err)
    }
}

func centsString(cents uint32) string {
    return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
