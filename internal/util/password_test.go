package util

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"too short", "elevenchars", false},
		{"minimum length", "twelve chars", true},
		{"maximum length", strings.Repeat("a", 128), true},
		{"too long", strings.Repeat("a", 129), false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.valid {
			if err == nil {
				t.Errorf("%s: expected rejection", tc.name)
			} else if !errors.Is(err, ErrPasswordPolicy) {
				t.Errorf("%s: error does not wrap ErrPasswordPolicy: %v", tc.name, err)
			}
		}
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	digest, err := HashSecret("correct horse battery")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if digest == "correct horse battery" {
		t.Fatalf("digest must not equal the plaintext")
	}
	if !VerifySecret("correct horse battery", digest) {
		t.Errorf("expected matching secret to verify")
	}
	if VerifySecret("correct horse staple", digest) {
		t.Errorf("expected non-matching secret to fail")
	}
	if VerifySecret("correct horse battery", "not a bcrypt digest") {
		t.Errorf("expected garbage digest to fail verification")
	}
}

func TestHashSecretLongInput(t *testing.T) {
	// bcrypt alone caps input at 72 bytes; the whole policy range must hash.
	for _, n := range []int{72, 73, 100, 128} {
		password := strings.Repeat("a", n)
		digest, err := HashSecret(password)
		if err != nil {
			t.Fatalf("HashSecret(%d chars) returned error: %v", n, err)
		}
		if !VerifySecret(password, digest) {
			t.Errorf("%d-char password does not verify against its own digest", n)
		}
	}

	// Long passwords differing only past byte 72 must not collide.
	base := strings.Repeat("a", 72)
	digest, err := HashSecret(base + "tail-one")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if VerifySecret(base+"tail-two", digest) {
		t.Errorf("passwords differing past byte 72 verify against each other")
	}
}

func TestHashSecretSalted(t *testing.T) {
	first, err := HashSecret("correct horse battery")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	second, err := HashSecret("correct horse battery")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct digests for the same input")
	}
}

func TestNewOpaqueToken(t *testing.T) {
	first, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken returned error: %v", err)
	}
	second, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken returned error: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(first))
	}
	if strings.ToLower(first) != first {
		t.Errorf("expected lowercase hex, got %q", first)
	}
	if first == second {
		t.Errorf("expected unique tokens on every call")
	}
}
