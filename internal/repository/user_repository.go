package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/p2p-marketplace/internal/model"
)

// UserRepo reads user records.  Account management is owned by the session
// provider; the order core only needs to resolve a seller's payout wallet
// before a crypto order may be created.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID returns a single user or ErrUserNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
    const q = `SELECT id, email, display_name, crypto_wallet_address, created_at, updated_at
               FROM users WHERE id = ?`
    var u model.User
    var wallet sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &u.ID, &u.Email, &u.DisplayName, &wallet, &u.CreatedAt, &u.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    if wallet.Valid {
        w := wallet.String
        u.CryptoWalletAddress = &w
    }
    return &u, nil
}
