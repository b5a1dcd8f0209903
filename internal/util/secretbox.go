package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

const secretboxIVSize = 16

// SecretCodec reversibly encrypts the per-user TOTP shared secret with a
// process-wide master key. The secret has to be recoverable in plaintext to
// verify codes, so this is the one place where encryption, not hashing, is
// the right tool. Construct one at startup and inject it; there is no global.
type SecretCodec struct {
	aead cipher.AEAD
}

// NewSecretCodec builds a codec from a 256-bit master key. A key of any other
// length is a configuration error and refuses to construct.
func NewSecretCodec(masterKey []byte) (*SecretCodec, error) {
	if len(masterKey) != 32 {
		return nil, errors.New("master key must be exactly 32 bytes")
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, secretboxIVSize)
	if err != nil {
		return nil, err
	}
	return &SecretCodec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random 128-bit IV and serializes the
// result as hex(iv) + ":" + hex(ciphertext). A new IV is drawn on every call.
func (c *SecretCodec) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, secretboxIVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed or unauthentic input reports ok=false
// rather than an error; the caller decides whether that is fatal.
func (c *SecretCodec) Decrypt(encoded string) (string, bool) {
	ivPart, dataPart, found := strings.Cut(encoded, ":")
	if !found || ivPart == "" || dataPart == "" {
		return "", false
	}
	iv, err := hex.DecodeString(ivPart)
	if err != nil || len(iv) != secretboxIVSize {
		return "", false
	}
	sealed, err := hex.DecodeString(dataPart)
	if err != nil {
		return "", false
	}
	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}
