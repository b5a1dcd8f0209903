package service

import (
	"errors"

	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so the response never reveals which one it was.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrTwoFactorFailed is only returned after the password has matched,
	// at which point the account's existence is no longer a secret.
	ErrTwoFactorFailed = errors.New("failed two factor authentication")

	ErrDuplicateEmail = errors.New("email address already taken")

	ErrInvalidEmail = errors.New("invalid email address")

	// ErrCorruptCredential means a stored 2FA secret no longer decrypts:
	// either the master key rotated without migrating data, or the row is
	// corrupt. Operators get a loud log line, the client a generic failure.
	ErrCorruptCredential = errors.New("stored two factor secret is not decryptable")

	ErrNotAuthenticated = errors.New("not logged in")

	ErrUserNotFound = errors.New("user not found")

	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
)

func isNotFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
