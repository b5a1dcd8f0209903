package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/lukedavisbbd/security-todos/internal/domain"
	"github.com/lukedavisbbd/security-todos/internal/repository/ports"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

// AuthService owns registration, login, refresh-token rotation and logout.
// Every operation is a single request/response unit; nothing is cached
// between calls.
type AuthService struct {
	credentials   ports.CredentialRepository
	refreshTokens ports.RefreshTokenRepository
	roles         ports.RoleRepository
	codec         *util.SecretCodec
	jwts          *util.JWTManager
	refreshTTL    time.Duration
	totpIssuer    string
}

func NewAuthService(
	credentialRepo ports.CredentialRepository,
	refreshTokenRepo ports.RefreshTokenRepository,
	roleRepo ports.RoleRepository,
	codec *util.SecretCodec,
	jwts *util.JWTManager,
	refreshTTL time.Duration,
	totpIssuer string,
) *AuthService {
	return &AuthService{
		credentials:   credentialRepo,
		refreshTokens: refreshTokenRepo,
		roles:         roleRepo,
		codec:         codec,
		jwts:          jwts,
		refreshTTL:    refreshTTL,
		totpIssuer:    totpIssuer,
	}
}

// RegisterResult carries the one-time enrollment URI. It cannot be re-issued
// later; there is no secret-regeneration flow, so losing the authenticator
// before the first login means registering again.
type RegisterResult struct {
	User    domain.User
	TOTPUri string
}

// Session is the pair of artifacts handed to the client after a successful
// login or refresh: signed claims plus the plaintext of the freshly minted
// refresh token.
type Session struct {
	User          domain.User
	Roles         []string
	Token         string
	TokenExpiry   time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// Register creates the credential record and returns the enrollment URI.
// It deliberately does not issue a session: the first login (password + TOTP)
// is the proof that the authenticator was actually enrolled.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*RegisterResult, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, err
	}

	secret, err := util.GenerateTOTPSecret()
	if err != nil {
		return nil, err
	}
	encrypted, err := s.codec.Encrypt(secret)
	if err != nil {
		return nil, err
	}
	passwordHash, err := util.HashSecret(password)
	if err != nil {
		return nil, err
	}

	cred, err := s.credentials.Insert(ctx, email, name, passwordHash, encrypted)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	return &RegisterResult{
		User:    cred.User,
		TOTPUri: util.TOTPProvisionURI(secret, cred.Email, s.totpIssuer),
	}, nil
}

// Login checks password then TOTP code, and on full success issues fresh
// session claims and a refresh token. An unknown email and a wrong password
// fail identically; only a 2FA failure after a correct password is
// distinguishable.
func (s *AuthService) Login(ctx context.Context, email, password, twoFactorCode string) (*Session, error) {
	cred, err := s.credentials.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	secret, ok := s.codec.Decrypt(cred.TwoFactorKeyEncrypted)
	if !ok {
		log.Printf("ALERT: two factor secret for user %d failed to decrypt", cred.UserID)
		return nil, ErrCorruptCredential
	}

	if !util.VerifySecret(password, cred.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !util.VerifyTOTP(secret, twoFactorCode, time.Now()) {
		return nil, ErrTwoFactorFailed
	}

	return s.issueSession(ctx, cred)
}

// Refresh exchanges a valid refresh token for a new session, rotating the
// token in the same operation. The presented plaintext is compared against
// every active token the user holds; the hashes are salted, so there is no
// lookup by value.
func (s *AuthService) Refresh(ctx context.Context, userID int64, presented string) (*Session, error) {
	if presented == "" {
		return nil, ErrNotAuthenticated
	}

	cred, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	tokens, err := s.refreshTokens.ListActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, err
	}

	matched, ok := matchToken(presented, tokens)
	if !ok {
		if len(tokens) > 0 {
			// A token that matches nothing while the user still has live
			// sessions is the signature of a replayed pre-rotation token.
			log.Printf("WARN: refresh token for user %d matched no stored hash; possible replay", userID)
		}
		return nil, ErrNotAuthenticated
	}

	newToken, err := util.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	newHash, err := util.HashSecret(newToken)
	if err != nil {
		return nil, err
	}

	refreshExpiry := time.Now().Add(s.refreshTTL)
	if err := s.refreshTokens.Rotate(ctx, userID, matched.TokenHash, newHash, refreshExpiry); err != nil {
		if isNotFound(err) {
			// Lost the rotation race to a concurrent request.
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	roles, err := s.roles.FetchRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	signed, tokenExpiry, err := s.jwts.Generate(cred.User, roles)
	if err != nil {
		return nil, err
	}

	return &Session{
		User:          cred.User,
		Roles:         roles,
		Token:         signed,
		TokenExpiry:   tokenExpiry,
		RefreshToken:  newToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout deletes the refresh token matching the presented plaintext. An
// already-rotated or unknown token is a no-op; the cookies get cleared either
// way.
func (s *AuthService) Logout(ctx context.Context, userID int64, presented string) error {
	if presented == "" {
		return nil
	}
	tokens, err := s.refreshTokens.ListActiveByUser(ctx, userID, time.Now())
	if err != nil {
		return err
	}
	matched, ok := matchToken(presented, tokens)
	if !ok {
		return nil
	}
	return s.refreshTokens.Delete(ctx, userID, matched.TokenHash)
}

// LogoutAll revokes every session the user holds, on every device.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.refreshTokens.DeleteAllForUser(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, cred *domain.UserCredential) (*Session, error) {
	roles, err := s.roles.FetchRolesForUser(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := util.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	refreshHash, err := util.HashSecret(refreshToken)
	if err != nil {
		return nil, err
	}
	refreshExpiry := time.Now().Add(s.refreshTTL)
	if err := s.refreshTokens.Insert(ctx, cred.UserID, refreshHash, refreshExpiry); err != nil {
		return nil, err
	}

	signed, tokenExpiry, err := s.jwts.Generate(cred.User, roles)
	if err != nil {
		return nil, err
	}

	return &Session{
		User:          cred.User,
		Roles:         roles,
		Token:         signed,
		TokenExpiry:   tokenExpiry,
		RefreshToken:  refreshToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

func matchToken(presented string, tokens []domain.RefreshToken) (domain.RefreshToken, bool) {
	for _, t := range tokens {
		if util.VerifySecret(presented, t.TokenHash) {
			return t, true
		}
	}
	return domain.RefreshToken{}, false
}
