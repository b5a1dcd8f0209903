package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
)

const pgUniqueViolation = "23505"

type CredentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepo(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Insert(ctx context.Context, email, name, passwordHash, twoFactorKeyEncrypted string) (*domain.UserCredential, error) {
	const query = `
        INSERT INTO users (email, name, password, two_factor_key)
        VALUES ($1, $2, $3, $4)
        RETURNING user_id, email, name, email_verified, password, two_factor_key
    `
	row := r.db.QueryRowxContext(ctx, query, email, name, passwordHash, twoFactorKeyEncrypted)
	var cred domain.UserCredential
	if err := row.StructScan(&cred); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ports.ErrDuplicateEmail
		}
		return nil, err
	}
	return &cred, nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.UserCredential, error) {
	const query = `
        SELECT user_id, email, name, email_verified, password, two_factor_key
        FROM users
        WHERE email = $1
    `
	var cred domain.UserCredential
	if err := r.db.GetContext(ctx, &cred, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, userID int64) (*domain.UserCredential, error) {
	const query = `
        SELECT user_id, email, name, email_verified, password, two_factor_key
        FROM users
        WHERE user_id = $1
    `
	var cred domain.UserCredential
	if err := r.db.GetContext(ctx, &cred, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// UpdatePasswordHash replaces the stored password hash directly. The reset
// flow writes users inside Consume's transaction and does not come through
// here; this covers password changes made outside a reset.
func (r *CredentialRepository) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	const query = `UPDATE users SET password = $2 WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, newHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
