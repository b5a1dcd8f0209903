package util

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lukedavisbbd/security-todos/internal/domain"
)

// SessionClaims is the signed, client-held session payload. Roles are a
// snapshot taken at issuance; they are not re-checked until the next refresh,
// which bounds role-revocation delay to the session lifetime.
type SessionClaims struct {
	User  domain.User `json:"user"`
	Roles []string    `json:"roles"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	ttl    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl}
}

// Generate signs fresh session claims for a user with the given role snapshot.
func (m *JWTManager) Generate(user domain.User, roles []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	if roles == nil {
		roles = []string{}
	}
	claims := SessionClaims{
		User:  user,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.UserID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry and returns the claims.
func (m *JWTManager) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ParseExpired verifies the signature but skips claim validation. The refresh
// path uses it to recover the user ID from an expired session cookie before
// attempting token-based re-authentication; an unsigned or tampered cookie
// still fails here.
func (m *JWTManager) ParseExpired(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, m.keyFunc); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return m.secret, nil
}
