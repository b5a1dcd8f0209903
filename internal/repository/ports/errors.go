package ports

import "errors"

var (
	// ErrNotFound is the typed absence every repository returns instead of
	// leaking driver-level sentinels to callers.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail surfaces the unique constraint on users.email.
	ErrDuplicateEmail = errors.New("email address already taken")
)
