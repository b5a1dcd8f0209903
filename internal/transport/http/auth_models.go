package http

import (
	"net/mail"
	"strings"

	"github.com/lukedavisbbd/security-todos/internal/domain"
)

const (
	twoFactorErrorMessage = "2FA pin must be exactly 6 digits."
	passwordPolicyMessage = "Password must be between 12 and 128 characters long."
)

// LoginRequest carries the three login factors.
type LoginRequest struct {
	Email     string `json:"email" example:"user@example.com"`
	Password  string `json:"password" example:"correct horse battery"`
	TwoFactor string `json:"twoFactor" example:"123456"`
}

func (r *LoginRequest) validate() []string {
	var errs []string
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		errs = append(errs, "Invalid email address.")
	}
	if strings.TrimSpace(r.Password) == "" {
		errs = append(errs, "Password must not be empty.")
	}
	if len(r.Password) > 512 {
		errs = append(errs, "Password is too long.")
	}
	if !isSixDigits(r.TwoFactor) {
		errs = append(errs, twoFactorErrorMessage)
	}
	return errs
}

// RegisterRequest carries registration fields. Password policy (12-128
// characters) is enforced in the service layer.
type RegisterRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"correct horse battery"`
	Name     string `json:"name" example:"Sam Taylor"`
}

func (r *RegisterRequest) validate() []string {
	var errs []string
	if _, err := mail.ParseAddress(strings.TrimSpace(r.Email)); err != nil {
		errs = append(errs, "Invalid email address.")
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, "Name must not be empty.")
	}
	return errs
}

// RegisterResponse returns the created user and the one-time TOTP enrollment
// URI; the URI is never persisted and cannot be re-issued.
type RegisterResponse struct {
	User    domain.User `json:"user"`
	TOTPUri string      `json:"totpUri" example:"otpauth://totp/To-Do%20App:user@example.com?secret=..."`
}

// ConsumeResetRequest completes an admin-issued password reset.
type ConsumeResetRequest struct {
	UserID      int64  `json:"userId" example:"42"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" example:"correct horse battery staple"`
	TwoFactor   string `json:"twoFactor" example:"123456"`
}

func (r *ConsumeResetRequest) validate() []string {
	var errs []string
	if r.UserID <= 0 {
		errs = append(errs, "Invalid user ID.")
	}
	if strings.TrimSpace(r.Token) == "" {
		errs = append(errs, "Reset token must not be empty.")
	}
	if !isSixDigits(r.TwoFactor) {
		errs = append(errs, twoFactorErrorMessage)
	}
	return errs
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
