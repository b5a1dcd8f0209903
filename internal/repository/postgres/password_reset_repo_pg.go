package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
)

type PasswordResetTokenRepository struct {
	db *sqlx.DB
}

func NewPasswordResetTokenRepo(db *sqlx.DB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: db}
}

func (r *PasswordResetTokenRepository) Insert(ctx context.Context, userID int64, tokenHash string, expiry time.Time) error {
	const query = `
        INSERT INTO password_reset_tokens (user_id, token_hash, expiry)
        VALUES ($1, $2, $3)
    `
	_, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiry)
	return err
}

func (r *PasswordResetTokenRepository) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]domain.PasswordResetToken, error) {
	const query = `
        SELECT user_id, token_hash, expiry
        FROM password_reset_tokens
        WHERE user_id = $1 AND expiry > $2
    `
	var tokens []domain.PasswordResetToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID, now); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Consume applies the whole reset in one transaction: burn the token, install
// the new password hash, and log the user out of every device. Partial
// application is a correctness bug, so any failed step rolls back the rest.
func (r *PasswordResetTokenRepository) Consume(ctx context.Context, userID int64, tokenHash, newPasswordHash string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE user_id = $1 AND token_hash = $2`,
		userID, tokenHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password = $2 WHERE user_id = $1`,
		userID, newPasswordHash); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`,
		userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit password reset: %w", err)
	}
	return nil
}
