package util

import (
	"bytes"
	"strings"
	"testing"
)

func testCodec(t *testing.T) *SecretCodec {
	t.Helper()
	codec, err := NewSecretCodec(bytes.Repeat([]byte{0x2a}, 32))
	if err != nil {
		t.Fatalf("NewSecretCodec returned error: %v", err)
	}
	return codec
}

func TestSecretCodecRoundTrip(t *testing.T) {
	codec := testCodec(t)

	plaintext := "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
	encrypted, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if !strings.Contains(encrypted, ":") {
		t.Fatalf("expected iv:ciphertext serialization, got %q", encrypted)
	}

	decrypted, ok := codec.Decrypt(encrypted)
	if !ok {
		t.Fatalf("expected decryption to succeed")
	}
	if decrypted != plaintext {
		t.Fatalf("round trip mismatch: got %q", decrypted)
	}
}

func TestSecretCodecFreshIVPerCall(t *testing.T) {
	codec := testCodec(t)

	first, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	second, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ciphertexts for the same plaintext")
	}
	for _, encrypted := range []string{first, second} {
		if got, ok := codec.Decrypt(encrypted); !ok || got != "secret" {
			t.Fatalf("expected both ciphertexts to decrypt to the plaintext")
		}
	}
}

func TestSecretCodecDecryptMalformedInput(t *testing.T) {
	codec := testCodec(t)

	for _, input := range []string{"", "nocolon", ":", "abc:", ":abc", "zz:zz", "deadbeef:deadbeef"} {
		if _, ok := codec.Decrypt(input); ok {
			t.Errorf("expected Decrypt(%q) to report absence", input)
		}
	}
}

func TestSecretCodecDecryptTamperedCiphertext(t *testing.T) {
	codec := testCodec(t)

	encrypted, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	tampered := []byte(encrypted)
	last := len(tampered) - 1
	if tampered[last] == '0' {
		tampered[last] = '1'
	} else {
		tampered[last] = '0'
	}
	if _, ok := codec.Decrypt(string(tampered)); ok {
		t.Fatalf("expected tampered ciphertext to fail authentication")
	}
}

func TestSecretCodecRejectsBadKeyLength(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		if _, err := NewSecretCodec(bytes.Repeat([]byte{0x2a}, size)); err == nil {
			t.Errorf("expected %d-byte key to be rejected", size)
		}
	}
}

func TestSecretCodecDecryptWrongKey(t *testing.T) {
	codec := testCodec(t)
	other, err := NewSecretCodec(bytes.Repeat([]byte{0x17}, 32))
	if err != nil {
		t.Fatalf("NewSecretCodec returned error: %v", err)
	}

	encrypted, err := codec.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if _, ok := other.Decrypt(encrypted); ok {
		t.Fatalf("expected decryption under a different key to fail")
	}
}
