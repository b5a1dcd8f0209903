package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

// fakeResetTokenRepo emulates the transactional Consume against the other two
// fakes: burn the token, install the password hash, purge refresh tokens.
type fakeResetTokenRepo struct {
	rows    []domain.PasswordResetToken
	creds   *fakeCredentialRepo
	refresh *fakeRefreshTokenRepo
}

func (f *fakeResetTokenRepo) Insert(ctx context.Context, userID int64, tokenHash string, expiry time.Time) error {
	f.rows = append(f.rows, domain.PasswordResetToken{UserID: userID, TokenHash: tokenHash, Expiry: expiry})
	return nil
}

func (f *fakeResetTokenRepo) ListActiveByUser(ctx context.Context, userID int64, now time.Time) ([]domain.PasswordResetToken, error) {
	var active []domain.PasswordResetToken
	for _, row := range f.rows {
		if row.UserID == userID && row.Expiry.After(now) {
			active = append(active, row)
		}
	}
	return active, nil
}

func (f *fakeResetTokenRepo) Consume(ctx context.Context, userID int64, tokenHash, newPasswordHash string) error {
	for i, row := range f.rows {
		if row.UserID == userID && row.TokenHash == tokenHash {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			if err := f.creds.UpdatePasswordHash(ctx, userID, newPasswordHash); err != nil {
				return err
			}
			return f.refresh.DeleteAllForUser(ctx, userID)
		}
	}
	return ports.ErrNotFound
}

type fakeMailer struct {
	emails []string
	tokens []string
	err    error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	f.emails = append(f.emails, email)
	f.tokens = append(f.tokens, token)
	return f.err
}

type resetFixture struct {
	svc     *PasswordResetService
	creds   *fakeCredentialRepo
	resets  *fakeResetTokenRepo
	refresh *fakeRefreshTokenRepo
	mailer  *fakeMailer
	codec   *util.SecretCodec
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	codec, err := util.NewSecretCodec(bytes.Repeat([]byte{0x2a}, 32))
	if err != nil {
		t.Fatalf("NewSecretCodec returned error: %v", err)
	}
	creds := newFakeCredentialRepo()
	refresh := &fakeRefreshTokenRepo{}
	resets := &fakeResetTokenRepo{creds: creds, refresh: refresh}
	mailer := &fakeMailer{}
	svc := NewPasswordResetService(creds, resets, codec, mailer, 2*time.Hour)
	return &resetFixture{svc: svc, creds: creds, resets: resets, refresh: refresh, mailer: mailer, codec: codec}
}

func (fx *resetFixture) seedUser(t *testing.T, email string) (int64, string) {
	t.Helper()
	auth := &authFixture{creds: fx.creds, codec: fx.codec}
	return auth.seedUser(t, email)
}

func TestIssueResetToken(t *testing.T) {
	fx := newResetFixture(t)
	userID, _ := fx.seedUser(t, "user@example.com")

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueResetToken returned error: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64-character token plaintext, got %d", len(token))
	}

	if len(fx.resets.rows) != 1 {
		t.Fatalf("expected one stored token row, got %d", len(fx.resets.rows))
	}
	row := fx.resets.rows[0]
	if row.TokenHash == token {
		t.Errorf("token stored in the clear")
	}
	if !util.VerifySecret(token, row.TokenHash) {
		t.Errorf("stored hash does not match the issued token")
	}
	if !row.Expiry.After(time.Now().Add(time.Hour)) {
		t.Errorf("expected expiry well in the future, got %v", row.Expiry)
	}

	if len(fx.mailer.emails) != 1 || fx.mailer.emails[0] != "user@example.com" {
		t.Errorf("expected the token to be mailed to the user, got %v", fx.mailer.emails)
	}
	if len(fx.mailer.tokens) != 1 || fx.mailer.tokens[0] != token {
		t.Errorf("mailed token does not match the issued one")
	}
}

func TestIssueResetTokenUnknownUser(t *testing.T) {
	fx := newResetFixture(t)

	if _, err := fx.svc.IssueResetToken(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIssueResetTokenMailFailureIsBestEffort(t *testing.T) {
	fx := newResetFixture(t)
	userID, _ := fx.seedUser(t, "user@example.com")
	fx.mailer.err = errors.New("smtp down")

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected mail failure not to fail issuance, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected the plaintext despite the mail failure")
	}
}

func TestConsumeResetToken(t *testing.T) {
	fx := newResetFixture(t)
	userID, secret := fx.seedUser(t, "user@example.com")

	// A live session that must not survive the reset.
	hash, err := util.HashSecret("live-session-token")
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if err := fx.refresh.Insert(context.Background(), userID, hash, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seeding refresh token: %v", err)
	}

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueResetToken returned error: %v", err)
	}

	newPassword := "correct horse battery staple"
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, newPassword, currentCode(t, secret)); err != nil {
		t.Fatalf("ConsumeResetToken returned error: %v", err)
	}

	cred, err := fx.creds.FindByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !util.VerifySecret(newPassword, cred.PasswordHash) {
		t.Errorf("new password does not verify against the stored hash")
	}
	if util.VerifySecret(testPassword, cred.PasswordHash) {
		t.Errorf("old password still verifies after the reset")
	}
	if n := fx.refresh.countForUser(userID); n != 0 {
		t.Errorf("expected every refresh token revoked, %d remain", n)
	}

	// Single use: the same token cannot be consumed twice.
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, "yet another password", currentCode(t, secret)); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("replayed token: expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestConsumeResetTokenMaxLengthPassword(t *testing.T) {
	fx := newResetFixture(t)
	userID, secret := fx.seedUser(t, "user@example.com")

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueResetToken returned error: %v", err)
	}

	newPassword := strings.Repeat("a", 128)
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, newPassword, currentCode(t, secret)); err != nil {
		t.Fatalf("128-char password must be accepted, got %v", err)
	}

	cred, err := fx.creds.FindByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if !util.VerifySecret(newPassword, cred.PasswordHash) {
		t.Errorf("stored hash does not verify the full-length password")
	}
}

func TestConsumeResetTokenWrongTwoFactorKeepsToken(t *testing.T) {
	fx := newResetFixture(t)
	userID, secret := fx.seedUser(t, "user@example.com")

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueResetToken returned error: %v", err)
	}

	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, "correct horse battery staple", "000000"); !errors.Is(err, ErrTwoFactorFailed) {
		t.Fatalf("expected ErrTwoFactorFailed, got %v", err)
	}

	// A failed second factor must not burn the token.
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, "correct horse battery staple", currentCode(t, secret)); err != nil {
		t.Fatalf("token should still be usable after a 2FA failure, got %v", err)
	}
}

func TestConsumeResetTokenRejectsBadInput(t *testing.T) {
	fx := newResetFixture(t)
	userID, secret := fx.seedUser(t, "user@example.com")
	code := currentCode(t, secret)

	if err := fx.svc.ConsumeResetToken(context.Background(), 999, "anything", "correct horse battery staple", code); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("unknown user: expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, "never-issued", "correct horse battery staple", code); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("unknown token: expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, "", "correct horse battery staple", code); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("empty token: expected ErrInvalidOrExpiredToken, got %v", err)
	}

	token, err := fx.svc.IssueResetToken(context.Background(), userID)
	if err != nil {
		t.Fatalf("IssueResetToken returned error: %v", err)
	}
	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, "short", code); !errors.Is(err, util.ErrPasswordPolicy) {
		t.Errorf("weak password: expected password policy error, got %v", err)
	}
}

func TestConsumeResetTokenExpired(t *testing.T) {
	fx := newResetFixture(t)
	userID, secret := fx.seedUser(t, "user@example.com")

	token, err := util.NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken returned error: %v", err)
	}
	hash, err := util.HashSecret(token)
	if err != nil {
		t.Fatalf("HashSecret returned error: %v", err)
	}
	if err := fx.resets.Insert(context.Background(), userID, hash, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seeding expired token: %v", err)
	}

	if err := fx.svc.ConsumeResetToken(context.Background(), userID, token, "correct horse battery staple", currentCode(t, secret)); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expired token: expected ErrInvalidOrExpiredToken, got %v", err)
	}
}
