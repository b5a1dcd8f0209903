package service

import (
	"context"
	"log"
	"time"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

// ResetTokenMailer delivers a freshly issued reset token out of band. It is
// optional; without one the plaintext is only returned to the issuing admin.
type ResetTokenMailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// PasswordResetService issues and consumes single-use password-reset tokens.
// Consumption re-checks the second factor and revokes every refresh token the
// user holds, since a reset usually means the account may be compromised.
type PasswordResetService struct {
	credentials ports.CredentialRepository
	resetTokens ports.PasswordResetTokenRepository
	codec       *util.SecretCodec
	mailer      ResetTokenMailer
	tokenTTL    time.Duration
}

func NewPasswordResetService(
	credentialRepo ports.CredentialRepository,
	resetTokenRepo ports.PasswordResetTokenRepository,
	codec *util.SecretCodec,
	mailer ResetTokenMailer,
	tokenTTL time.Duration,
) *PasswordResetService {
	return &PasswordResetService{
		credentials: credentialRepo,
		resetTokens: resetTokenRepo,
		codec:       codec,
		mailer:      mailer,
		tokenTTL:    tokenTTL,
	}
}

// IssueResetToken mints an opaque token for the user, stores its hash with a
// short expiry, and returns the plaintext for out-of-band delivery. Repeated
// issuance is allowed; earlier tokens stay valid until they expire or one of
// them is consumed.
func (s *PasswordResetService) IssueResetToken(ctx context.Context, userID int64) (string, error) {
	cred, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	token, err := util.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	hash, err := util.HashSecret(token)
	if err != nil {
		return "", err
	}
	if err := s.resetTokens.Insert(ctx, userID, hash, time.Now().Add(s.tokenTTL)); err != nil {
		return "", err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, cred.Email, token); err != nil {
			// Delivery is best effort; the admin still holds the plaintext.
			log.Printf("WARN: reset token mail to user %d failed: %v", userID, err)
		}
	}

	return token, nil
}

// ConsumeResetToken validates the token and the second factor, then applies
// the reset atomically: token burned, password replaced, all refresh tokens
// revoked. A missing user and a non-matching token fail identically.
func (s *PasswordResetService) ConsumeResetToken(ctx context.Context, userID int64, presented, newPassword, twoFactorCode string) error {
	cred, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	if err := util.ValidatePassword(newPassword); err != nil {
		return err
	}

	tokens, err := s.resetTokens.ListActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return err
	}
	matched, ok := matchResetToken(presented, tokens)
	if !ok {
		return ErrInvalidOrExpiredToken
	}

	secret, ok := s.codec.Decrypt(cred.TwoFactorKeyEncrypted)
	if !ok {
		log.Printf("ALERT: two factor secret for user %d failed to decrypt", cred.UserID)
		return ErrCorruptCredential
	}
	if !util.VerifyTOTP(secret, twoFactorCode, time.Now()) {
		return ErrTwoFactorFailed
	}

	newHash, err := util.HashSecret(newPassword)
	if err != nil {
		return err
	}
	if err := s.resetTokens.Consume(ctx, userID, matched.TokenHash, newHash); err != nil {
		if isNotFound(err) {
			// Another consumer burned the token first.
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	return nil
}

func matchResetToken(presented string, tokens []domain.PasswordResetToken) (domain.PasswordResetToken, bool) {
	if presented == "" {
		return domain.PasswordResetToken{}, false
	}
	for _, t := range tokens {
		if util.VerifySecret(presented, t.TokenHash) {
			return t, true
		}
	}
	return domain.PasswordResetToken{}, false
}
