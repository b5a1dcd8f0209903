package ports

import (
	"context"

	"github.com/lukedavisbbd/security-todos/internal/domain"
)

type CredentialRepository interface {
	// Insert creates the credential record atomically and returns it.
	// A taken email yields ErrDuplicateEmail.
	Insert(ctx context.Context, email, name, passwordHash, twoFactorKeyEncrypted string) (*domain.UserCredential, error)
	FindByEmail(ctx context.Context, email string) (*domain.UserCredential, error)
	FindByID(ctx context.Context, userID int64) (*domain.UserCredential, error)
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
}
