package model

import "time"

// OrderStatus is the state of an order in its lifecycle.  Orders are created
// PENDING by the reservation initiator and move to COMPLETED exclusively
// through the finalization engine.  CANCELLED and REFUNDED are terminal
// states reached through recovery flows; they release the reserved item.
type OrderStatus string

const (
    OrderPending   OrderStatus = "pending"
    OrderCompleted OrderStatus = "completed"
    OrderCancelled OrderStatus = "cancelled"
    OrderRefunded  OrderStatus = "refunded"
)

// PaymentMethod identifies which payment rail an order settles on.
type PaymentMethod string

const (
    PayByCard   PaymentMethod = "card"
    PayByCrypto PaymentMethod = "crypto"
)

// Order represents a row in the `orders` table: one buyer's commitment to
// pay for one item via one payment method.  Exactly one order may ever
// reach COMPLETED for a given item; that invariant is enforced
// transactionally together with the item's status transition.
//
// Crypto orders record the on-chain transaction hash (unique — the
// idempotency key for webhook replays), the chain ID, both wallet
// addresses and the expected amount in ether as the exact decimal string
// the buyer committed to.  Card orders record the external payment intent
// ID (unique — the idempotency key for the card rail).
//
// Fields:
//  ID                  – opaque UUID primary key.
//  ItemID              – item being purchased.
//  BuyerID             – purchasing user.
//  SellerID            – selling user (denormalized from the item).
//  PaymentMethod       – card or crypto.
//  Status              – see OrderStatus.
//  AmountPaidCents     – total in USD cents (price + shipping).
//  TxHash              – crypto: on-chain tx hash (nullable until sent).
//  ChainID             – crypto: chain the payment settles on.
//  BuyerWalletAddress  – crypto: paying wallet.
//  SellerWalletAddress – crypto: payout wallet recorded at reservation time.
//  AmountPaidEth       – crypto: expected amount in ether, decimal string.
//  PaymentIntentID     – card: external payment intent ID (nullable).
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Order struct {
    ID                  string        // orders.id
    ItemID              string        // orders.item_id
    BuyerID             string        // orders.buyer_id
    SellerID            string        // orders.seller_id
    PaymentMethod       PaymentMethod // orders.payment_method
    Status              OrderStatus   // orders.status
    AmountPaidCents     uint32        // orders.amount_paid_cents
    TxHash              *string       // orders.tx_hash (nullable, unique)
    ChainID             int64         // orders.chain_id (0 for card orders)
    BuyerWalletAddress  *string       // orders.buyer_wallet_address (nullable)
    SellerWalletAddress *string       // orders.seller_wallet_address (nullable)
    AmountPaidEth       *string       // orders.amount_paid_eth (nullable)
    PaymentIntentID     *string       // orders.payment_intent_id (nullable, unique)
    CreatedAt           time.Time     // orders.created_at
    UpdatedAt           time.Time     // orders.updated_at
}
