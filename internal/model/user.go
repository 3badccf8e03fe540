package model

import "time"

// User represents a row in the `users` table.  Authentication and session
// management are owned by an external collaborator; the order core reads
// users only to resolve a seller's payout wallet when a crypto order is
// created.
//
// Fields:
//  ID                  – opaque UUID primary key.
//  Email               – unique email address.
//  DisplayName         – public name shown on listings.
//  CryptoWalletAddress – seller payout wallet (nullable; crypto checkout is
//                        disabled for sellers without one).
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type User struct {
    ID                  string    // users.id
    Email               string    // users.email
    DisplayName         string    // users.display_name
    CryptoWalletAddress *string   // users.crypto_wallet_address (nullable)
    CreatedAt           time.Time // users.created_at
    UpdatedAt           time.Time // users.updated_at
}
