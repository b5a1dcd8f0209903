package util

import (
	"crypto/rand"
	"encoding/hex"
)

const opaqueTokenBytes = 32

// NewOpaqueToken returns 256 bits of fresh randomness as a 64-character hex
// string. Used for refresh tokens and password-reset tokens; only a bcrypt
// hash of the value is ever stored.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
