package domain

import "time"

// RefreshToken is one browser session's renewal capability. Only the bcrypt
// hash of the opaque value is stored; the plaintext is handed to the client
// once and never persisted. A token is single-use: presenting it successfully
// replaces it with a fresh one.
type RefreshToken struct {
	UserID    int64     `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	Expiry    time.Time `db:"expiry"`
}

// PasswordResetToken is a short-lived, single-use credential issued out of
// band (by an administrator) to let a user replace a forgotten password.
type PasswordResetToken struct {
	UserID    int64     `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	Expiry    time.Time `db:"expiry"`
}
