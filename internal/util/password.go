package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost 10 keeps a hash around 50-100ms on current hardware, slow enough
// to blunt offline guessing without stalling interactive login.
const bcryptCost = 10

// ErrPasswordPolicy marks password policy violations so handlers can map them
// to validation responses.
var ErrPasswordPolicy = errors.New("password policy violation")

// ValidatePassword enforces the registration password policy.
// Minimum 12 per OWASP authentication guidance; maximum 128 because very long
// inputs turn adaptive hashing into a denial-of-service vector.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("%w: must be at least 12 characters long", ErrPasswordPolicy)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: must be no more than 128 characters long", ErrPasswordPolicy)
	}
	return nil
}

// HashSecret produces a salted bcrypt digest. It is used for passwords and
// for opaque refresh/reset tokens alike, which is why stored tokens cannot be
// looked up by value and have to be matched by comparison.
//
// The input is pre-hashed with SHA-256 before bcrypt: bcrypt rejects inputs
// over 72 bytes, and the policy allows passwords up to 128 characters. The
// hex form of the pre-hash is a fixed 64 bytes, so every allowed input
// hashes.
func HashSecret(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prehash(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifySecret reports whether plaintext matches a stored bcrypt digest.
func VerifySecret(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(plaintext)) == nil
}

func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}
