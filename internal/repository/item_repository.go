package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/iliyamo/p2p-marketplace/internal/model"
)

// ItemRepo provides read and status-update access to the items table.  The
// item row is the most contended resource in the system: only one pending
// order may hold it reserved at a time.  Every status transition therefore
// happens through a `...Tx` method inside a caller-owned transaction,
// alongside the order mutation it is coupled to — never as a separate
// round trip.
type ItemRepo struct {
    db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span the items and orders tables.
func (r *ItemRepo) DB() *sql.DB { return r.db }

const itemColumns = `id, seller_id, title, price_cents, item_condition, status, image_urls, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*model.Item, error) {
    var it model.Item
    var images []byte
    if err := row.Scan(&it.ID, &it.SellerID, &it.Title, &it.PriceCents,
        &it.Condition, &it.Status, &images, &it.CreatedAt, &it.UpdatedAt); err != nil {
        return nil, err
    }
    if len(images) > 0 {
        if err := json.Unmarshal(images, &it.ImageURLs); err != nil {
            return nil, err
        }
    }
    return &it, nil
}

// GetByID returns a single item or ErrItemNotFound.  This read is not
// locking; use GetForUpdateTx for any check that precedes a status change.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
    const q = `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
    it, err := scanItem(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrItemNotFound
    }
    return it, err
}

// GetForUpdateTx loads an item row with a FOR UPDATE lock inside the given
// transaction.  The lock is what makes check-then-act on the status column
// safe: a concurrent reservation or finalize for the same item blocks here
// until the transaction commits or rolls back.  Returns ErrItemNotFound
// when no row matches.
func (r *ItemRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Item, error) {
    const q = `SELECT ` + itemColumns + ` FROM items WHERE id = ? FOR UPDATE`
    it, err := scanItem(tx.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrItemNotFound
    }
    return it, err
}

// UpdateStatusTx sets the item's status within the provided transaction.
// The caller must commit or roll back; the item transition must always
// travel with the order transition that caused it.
func (r *ItemRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.ItemStatus) error {
    const q = `UPDATE items SET status = ? WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrItemNotFound
    }
    return nil
}

// ListAvailable returns available items for the public browse surface,
// newest first.  Listing CRUD itself is owned elsewhere; this is the one
// read the marketplace front needs from the core's store.
func (r *ItemRepo) ListAvailable(ctx context.Context, limit, offset int) ([]model.Item, error) {
    const q = `SELECT ` + itemColumns + ` FROM items WHERE status = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, model.ItemAvailable, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    items := make([]model.Item, 0)
    for rows.Next() {
        it, err := scanItem(rows)
        if err != nil {
            return nil, err
        }
        items = append(items, *it)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return items, nil
}
