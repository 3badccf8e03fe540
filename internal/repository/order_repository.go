package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/p2p-marketplace/internal/model"
)

// OrderRepo provides access to the orders table — the ledger owned by the
// order core.  Lookups that precede a status change take FOR UPDATE locks
// so that the "already completed?" check and the completing update always
// sit inside one transaction boundary.  Duplicate webhook deliveries
// racing each other serialize on that row lock.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span the orders and items tables.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, item_id, buyer_id, seller_id, payment_method, status, amount_paid_cents,
       tx_hash, chain_id, buyer_wallet_address, seller_wallet_address, amount_paid_eth,
       payment_intent_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
    var o model.Order
    var txHash, buyerWallet, sellerWallet, amountEth, intentID sql.NullString
    var chainID sql.NullInt64
    if err := row.Scan(&o.ID, &o.ItemID, &o.BuyerID, &o.SellerID, &o.PaymentMethod,
        &o.Status, &o.AmountPaidCents, &txHash, &chainID, &buyerWallet, &sellerWallet,
        &amountEth, &intentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
        return nil, err
    }
    if txHash.Valid {
        v := txHash.String
        o.TxHash = &v
    }
    if chainID.Valid {
        o.ChainID = chainID.Int64
    }
    if buyerWallet.Valid {
        v := buyerWallet.String
        o.BuyerWalletAddress = &v
    }
    if sellerWallet.Valid {
        v := sellerWallet.String
        o.SellerWalletAddress = &v
    }
    if amountEth.Valid {
        v := amountEth.String
        o.AmountPaidEth = &v
    }
    if intentID.Valid {
        v := intentID.String
        o.PaymentIntentID = &v
    }
    return &o, nil
}

// CreateTx inserts a new order row within the scope of an existing
// transaction.  The caller supplies the ID and must commit or roll back
// together with the item status update that reserves the inventory.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders
        (id, item_id, buyer_id, seller_id, payment_method, status, amount_paid_cents,
         tx_hash, chain_id, buyer_wallet_address, seller_wallet_address, amount_paid_eth, payment_intent_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var chainID any
    if o.ChainID != 0 {
        chainID = o.ChainID
    }
    _, err := tx.ExecContext(ctx, q,
        o.ID, o.ItemID, o.BuyerID, o.SellerID, o.PaymentMethod, o.Status, o.AmountPaidCents,
        o.TxHash, chainID, o.BuyerWalletAddress, o.SellerWalletAddress, o.AmountPaidEth, o.PaymentIntentID)
    return err
}

// GetForUpdateTx loads an order by ID with a FOR UPDATE lock.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Order, error) {
    const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`
    o, err := scanOrder(tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrOrderNotFound
    }
    return o, err
}

// GetByPaymentIntentTx loads a card order by its payment intent ID with a
// FOR UPDATE lock.  Returns ErrOrderNotFound when no card order has
// recorded that intent.
func (r *OrderRepo) GetByPaymentIntentTx(ctx context.Context, tx *sql.Tx, intentID string) (*model.Order, error) {
    const q = `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = ? AND payment_method = ? FOR UPDATE`
    o, err := scanOrder(tx.QueryRowContext(ctx, q, intentID, model.PayByCard))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrOrderNotFound
    }
    return o, err
}

// GetByTxHashTx loads a crypto order by its on-chain transaction hash with
// a FOR UPDATE lock.  Returns ErrOrderNotFound for hashes the ledger has
// never seen — expected for blocks full of unrelated transactions.
func (r *OrderRepo) GetByTxHashTx(ctx context.Context, tx *sql.Tx, hash string) (*model.Order, error) {
    const q = `SELECT ` + orderColumns + ` FROM orders WHERE tx_hash = ? AND payment_method = ? FOR UPDATE`
    o, err := scanOrder(tx.QueryRowContext(ctx, q, hash, model.PayByCrypto))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrOrderNotFound
    }
    return o, err
}

// UpdateStatusTx sets the order status within the provided transaction.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.OrderStatus) error {
    const q = `UPDATE orders SET status = ? WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrOrderNotFound
    }
    return nil
}

// GetStatusForBuyer returns only the status of an order owned by the given
// buyer.  This is the read behind the client polling endpoint, so it stays
// as narrow as possible.  Returns ErrOrderNotFound when the order does not
// exist or belongs to someone else.
func (r *OrderRepo) GetStatusForBuyer(ctx context.Context, orderID, buyerID string) (model.OrderStatus, error) {
    const q = `SELECT status FROM orders WHERE id = ? AND buyer_id = ?`
    var status model.OrderStatus
    err := r.db.QueryRowContext(ctx, q, orderID, buyerID).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrOrderNotFound
    }
    return status, err
}

// ExpiredPendingRef identifies a stale pending order and the item it holds.
type ExpiredPendingRef struct {
    OrderID string
    ItemID  string
}

// ListExpiredPendingTx returns crypto orders that have stayed pending since
// before the cutoff, locking the rows so the expiry sweep and a late
// finalize cannot both act on the same order.  The caller cancels the
// orders and releases their items inside the same transaction.
func (r *OrderRepo) ListExpiredPendingTx(ctx context.Context, tx *sql.Tx, cutoff time.Time) ([]ExpiredPendingRef, error) {
    const q = `SELECT id, item_id FROM orders
               WHERE status = ? AND payment_method = ? AND created_at <= ?
               FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, model.OrderPending, model.PayByCrypto, cutoff.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var refs []ExpiredPendingRef
    for rows.Next() {
        var ref ExpiredPendingRef
        if err := rows.Scan(&ref.OrderID, &ref.ItemID); err != nil {
            return nil, err
        }
        refs = append(refs, ref)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return refs, nil
}
