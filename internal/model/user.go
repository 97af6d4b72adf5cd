package model

import "time"

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Name         – optional display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hash; empty for accounts that only sign in through
//                 an external identity provider.
//  Image        – optional avatar URL supplied by the identity provider.
//  Role         – ADMIN, OWNER or CUSTOMER.
//  Verified     – whether an administrator has verified the account.
//  PhoneNumber  – optional contact phone.
//  Address      – optional contact address.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Image        string
	Role         Role
	Verified     bool
	PhoneNumber  string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with a password.
func (u User) HasPassword() bool { return u.PasswordHash != "" }

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token handed to the client is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
