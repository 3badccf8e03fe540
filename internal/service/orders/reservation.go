package orders

import (
    "context"
    "fmt"
    "log"
    "math/big"
    "strings"

    "github.com/google/uuid"

    "github.com/iliyamo/p2p-marketplace/internal/model"
    "github.com/iliyamo/p2p-marketplace/internal/repository"
)

// ValidationError reports malformed reservation input field by field.  It
// is returned before any state mutation, so the caller can correct the
// request and retry freely.
type ValidationError struct {
    Fields map[string]string
}

func (e *ValidationError) Error() string {
    parts := make([]string, 0, len(e.Fields))
    for f, msg := range e.Fields {
        parts = append(parts, f+": "+msg)
    }
    return "validation failed: " + strings.Join(parts, "; ")
}

// CreateCryptoOrderInput is the buyer's commitment for a crypto purchase.
// The transaction has already been sent on-chain by the buyer's wallet;
// AmountEth is the exact decimal string the buyer paid and becomes the
// amount the webhook-delivered transaction must match to the wei.
type CreateCryptoOrderInput struct {
    ItemID             string
    TxHash             string
    BuyerWalletAddress string
    AmountEth          string
}

func (in CreateCryptoOrderInput) validate() error {
    fields := map[string]string{}
    if in.ItemID == "" {
        fields["item_id"] = "required"
    }
    if in.TxHash == "" {
        fields["tx_hash"] = "required"
    }
    if in.BuyerWalletAddress == "" {
        fields["buyer_wallet_address"] = "required"
    }
    if amt, ok := new(big.Rat).SetString(strings.TrimSpace(in.AmountEth)); !ok || amt.Sign() <= 0 {
        fields["amount_eth"] = "must be a positive decimal amount"
    }
    if len(fields) > 0 {
        return &ValidationError{Fields: fields}
    }
    return nil
}

// CreatePendingCryptoOrder creates a pending crypto order and reserves the
// item in one transaction.  Preconditions checked before any mutation: the
// item exists and is available, and the item's seller has a configured
// payout wallet (repository.ErrSellerWalletMissing otherwise).  The item
// availability check runs again under a FOR UPDATE lock inside the
// transaction, so of two buyers racing for the same item exactly one gets
// an order and the other sees repository.ErrItemNotAvailable.
func (s *Service) CreatePendingCryptoOrder(ctx context.Context, buyerID string, in CreateCryptoOrderInput) (string, error) {
    if err := in.validate(); err != nil {
        return "", err
    }
    item, err := s.items.GetByID(ctx, in.ItemID)
    if err != nil {
        return "", err
    }
    seller, err := s.users.GetByID(ctx, item.SellerID)
    if err != nil {
        return "", err
    }
    if seller.CryptoWalletAddress == nil || *seller.CryptoWalletAddress == "" {
        return "", repository.ErrSellerWalletMissing
    }

    order := &model.Order{
        ID:                  uuid.NewString(),
        ItemID:              item.ID,
        BuyerID:             buyerID,
        SellerID:            seller.ID,
        PaymentMethod:       model.PayByCrypto,
        Status:              model.OrderPending,
        AmountPaidCents:     item.PriceCents + s.shippingCents,
        TxHash:              &in.TxHash,
        ChainID:             s.chainID,
        BuyerWalletAddress:  &in.BuyerWalletAddress,
        SellerWalletAddress: seller.CryptoWalletAddress,
        AmountPaidEth:       &in.AmountEth,
    }
    if err := s.reserve(ctx, order); err != nil {
        return "", err
    }
    log.Printf("orders: pending crypto order %s created for item %s (tx %s)", order.ID, item.ID, in.TxHash)
    return order.ID, nil
}

// CreateCardOrderInput is the buyer's commitment for a card purchase.
type CreateCardOrderInput struct {
    ItemID string
}

// CreatePendingCardOrder creates an external payment intent for the item's
// total and then creates the pending order + reservation in one
// transaction, recording the intent ID.  The returned client secret is
// what the browser collects the card payment against.
func (s *Service) CreatePendingCardOrder(ctx context.Context, buyerID string, in CreateCardOrderInput) (orderID, clientSecret string, err error) {
    if in.ItemID == "" {
        return "", "", &ValidationError{Fields: map[string]string{"item_id": "required"}}
    }
    if s.intents == nil {
        return "", "", fmt.Errorf("card payments are not configured")
    }
    item, err := s.items.GetByID(ctx, in.ItemID)
    if err != nil {
        return "", "", err
    }
    if item.Status != model.ItemAvailable {
        // Cheap pre-check so a lost race does not create an orphan intent.
        return "", "", repository.ErrItemNotAvailable
    }

    total := int64(item.PriceCents + s.shippingCents)
    intent, err := s.intents.CreatePaymentIntent(ctx, total, "usd")
    if err != nil {
        return "", "", fmt.Errorf("create payment intent: %w", err)
    }

    order := &model.Order{
        ID:              uuid.NewString(),
        ItemID:          item.ID,
        BuyerID:         buyerID,
        SellerID:        item.SellerID,
        PaymentMethod:   model.PayByCard,
        Status:          model.OrderPending,
        AmountPaidCents: uint32(total),
        PaymentIntentID: &intent.ID,
    }
    if err := s.reserve(ctx, order); err != nil {
        return "", "", err
    }
    log.Printf("orders: pending card order %s created for item %s (intent %s)", order.ID, item.ID, intent.ID)
    return order.ID, intent.ClientSecret, nil
}

// reserve inserts the pending order and flips the item to reserved inside
// one transaction.  The item row is re-read with a FOR UPDATE lock so the
// availability check and the status flip cannot be split by a concurrent
// reservation — the lock turns the second buyer's check into a wait that
// observes the first buyer's commit.
func (s *Service) reserve(ctx context.Context, order *model.Order) error {
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

    item, err := s.items.GetForUpdateTx(ctx, tx, order.ItemID)
    if err != nil {
        return err
    }
    if item.Status != model.ItemAvailable {
        return repository.ErrItemNotAvailable
    }
    if err := s.orders.CreateTx(ctx, tx, order); err != nil {
        return err
    }
    if err := s.items.UpdateStatusTx(ctx, tx, order.ItemID, model.ItemReserved); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
