package ports

import (
	"context"
	"time"

	"github.com/lukedavisbbd/security-todos/internal/domain"
)

type PasswordResetTokenRepository interface {
	Insert(ctx context.Context, userID int64, tokenHash string, expiry time.Time) error
	ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]domain.PasswordResetToken, error)

	// Consume finishes a successful reset in one transaction: delete the
	// matched reset token, install the new password hash, and purge every
	// refresh token the user holds. Either all three apply or none do. A
	// token row that disappeared underneath us yields ErrNotFound.
	Consume(ctx context.Context, userID int64, tokenHash, newPasswordHash string) error
}
