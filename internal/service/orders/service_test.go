package orders

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"

    "github.com/iliyamo/p2p-marketplace/internal/model"
    "github.com/iliyamo/p2p-marketplace/internal/payment"
    "github.com/iliyamo/p2p-marketplace/internal/queue"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// capturePublisher records published events instead of touching a broker.
type capturePublisher struct {
    completed []queue.OrderCompletedEvent
    alerts    []queue.ReconciliationAlertEvent
}

func (p *capturePublisher) PublishOrderCompleted(_ context.Context, ev queue.OrderCompletedEvent) error {
    p.completed = append(p.completed, ev)
    return nil
}

func (p *capturePublisher) PublishReconciliationAlert(_ context.Context, ev queue.ReconciliationAlertEvent) error {
    p.alerts = append(p.alerts, ev)
    return nil
}

// stubIntents returns a fixed payment intent for card checkout tests.
type stubIntents struct {
    intent *payment.PaymentIntent
    err    error
}

func (s *stubIntents) CreatePaymentIntent(_ context.Context, _ int64, _ string) (*payment.PaymentIntent, error) {
    return s.intent, s.err
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *capturePublisher) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock.New: %v", err)
    }
    t.Cleanup(func() { db.Close() })

    pub := &capturePublisher{}
    svc := New(db,
        repository.NewItemRepo(db),
        repository.NewOrderRepo(db),
        repository.NewUserRepo(db),
        &stubIntents{intent: &payment.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}},
        pub,
        11155111,
        800,
    )
    svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
    return svc, mock, pub
}

var orderCols = []string{
    "id", "item_id", "buyer_id", "seller_id", "payment_method", "status", "amount_paid_cents",
    "tx_hash", "chain_id", "buyer_wallet_address", "seller_wallet_address", "amount_paid_eth",
    "payment_intent_id", "created_at", "updated_at",
}

var itemCols = []string{
    "id", "seller_id", "title", "price_cents", "item_condition", "status",
    "image_urls", "created_at", "updated_at",
}

// cardOrderRow builds an order row for a card order in the given status.
func cardOrderRow(status model.OrderStatus, amountCents uint32) *sqlmock.Rows {
    now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
    return sqlmock.NewRows(orderCols).AddRow(
        "order-1", "item-1", "buyer-1", "seller-1", "card", string(status), amountCents,
        nil, nil, nil, nil, nil, "pi_123", now, now)
}

// cryptoOrderRow builds an order row for a crypto order in the given status.
func cryptoOrderRow(status model.OrderStatus, sellerWallet, amountEth string) *sqlmock.Rows {
    now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
    return sqlmock.NewRows(orderCols).AddRow(
        "order-2", "item-2", "buyer-1", "seller-1", "crypto", string(status), 4800,
        "0xabc", 11155111, "0xbuyer", sellerWallet, amountEth, nil, now, now)
}

func itemRow(status model.ItemStatus) *sqlmock.Rows {
    now := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
    return sqlmock.NewRows(itemCols).AddRow(
        "item-1", "seller-1", "Vintage camera", 4000, "good", string(status),
        []byte(`["https://img.example/1.jpg"]`), now, now)
}

func expectMet(t *testing.T, mock sqlmock.Sqlmock) {
    t.Helper()
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unmet expectations: %v", err)
    }
}
