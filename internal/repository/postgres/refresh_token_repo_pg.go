package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
)

type RefreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepo(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Insert(ctx context.Context, userID int64, tokenHash string, expiry time.Time) error {
	const query = `
        INSERT INTO refresh_tokens (user_id, token_hash, expiry)
        VALUES ($1, $2, $3)
    `
	_, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiry)
	return err
}

func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]domain.RefreshToken, error) {
	const query = `
        SELECT user_id, token_hash, expiry
        FROM refresh_tokens
        WHERE user_id = $1 AND expiry > $2
    `
	var tokens []domain.RefreshToken
	if err := r.db.SelectContext(ctx, &tokens, query, userID, now); err != nil {
		return nil, err
	}
	return tokens, nil
}

// Rotate deletes the presented token and inserts its replacement in one
// transaction. The delete doubles as the race guard: if another request
// already rotated this token, zero rows match and the whole swap rolls back
// with ErrNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID int64, oldTokenHash, newTokenHash string, newExpiry time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2`,
		userID, oldTokenHash)
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
		`INSERT INTO refresh_tokens (user_id, token_hash, expiry) VALUES ($1, $2, $3)`,
		userID, newTokenHash, newExpiry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit token rotation: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, userID int64, tokenHash string) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2`
	_, err := r.db.ExecContext(ctx, query, userID, tokenHash)
	return err
}

func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
