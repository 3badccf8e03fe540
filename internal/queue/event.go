// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCompletedEvent is published when the finalization engine commits an
// order to completed.  It carries enough information for downstream
// consumers (receipts, notifications, analytics) without querying the
// primary database.
type OrderCompletedEvent struct {
    OrderID         string `json:"order_id"`
    ItemID          string `json:"item_id"`
    BuyerID         string `json:"buyer_id"`
    SellerID        string `json:"seller_id"`
    PaymentMethod   string `json:"payment_method"`
    AmountPaidCents uint32 `json:"amount_paid_cents"`
    CompletedAt     string `json:"completed_at"`
}

// Reconciliation alert kinds.  Each marks a payment fact the engine
// refused to apply automatically; an operator resolves it by hand.
const (
    AlertRecipientMismatch = "recipient_wallet_mismatch"
    AlertAmountMismatch    = "amount_mismatch"
    AlertOrderNotFound     = "no_pending_order"
    AlertOrderNotPending   = "order_not_pending"
)

// ReconciliationAlertEvent is published when a verified payment cannot be
// matched to its order: wrong payout wallet, wrong amount, a card payment
// whose order row never appeared, or funds arriving for an order a
// recovery flow already closed.  Expected/Actual carry enough context to
// diagnose without replaying the chain or the rail's event log.
type ReconciliationAlertEvent struct {
    Kind       string `json:"kind"`
    OrderID    string `json:"order_id,omitempty"`
    PaymentRef string `json:"payment_ref"` // tx hash or payment intent ID
    Expected   string `json:"expected,omitempty"`
    Actual     string `json:"actual,omitempty"`
    Detail     string `json:"detail,omitempty"`
    OccurredAt string `json:"occurred_at"`
}
