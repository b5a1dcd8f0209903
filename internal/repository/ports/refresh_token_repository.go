package ports

import (
	"context"
	"time"

	"github.com/lukedavisbbd/security-todos/internal/domain"
)

type RefreshTokenRepository interface {
	Insert(ctx context.Context, userID int64, tokenHash string, expiry time.Time) error

	// ListActiveByUser returns every unexpired token row for the user. Token
	// hashes are salted, so the caller matches a presented plaintext by
	// comparing against each row.
	ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]domain.RefreshToken, error)

	// Rotate atomically replaces oldTokenHash with newTokenHash. The swap is
	// conditioned on the old row still existing, so of two concurrent
	// presenters of the same token exactly one wins; the loser gets
	// ErrNotFound.
	Rotate(ctx context.Context, userID int64, oldTokenHash, newTokenHash string, newExpiry time.Time) error

	Delete(ctx context.Context, userID int64, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}
