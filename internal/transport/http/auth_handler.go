package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lukedavisbbd/security-todos/internal/service"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

type AuthHandler struct {
	auth    *service.AuthService
	resets  *service.PasswordResetService
	cookies CookieManager
}

func NewAuthHandler(auth *service.AuthService, resets *service.PasswordResetService, cookies CookieManager) *AuthHandler {
	return &AuthHandler{auth: auth, resets: resets, cookies: cookies}
}

func RegisterAuthRoutes(e *echo.Echo, h *AuthHandler, guard *SessionGuard) {
	g := e.Group("/auth")
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.GET("/logout", h.Logout, guard.RequireSession())
	g.GET("/logout/:userId", h.LogoutUser, guard.RequireRole("access_admin"))
	g.GET("/whoami", h.WhoAmI, guard.RequireSession())
	g.GET("/password/reset/:userId", h.IssueResetToken, guard.RequireRole("access_admin"))
	g.POST("/password/reset", h.ConsumeResetToken)
}

// Login authenticates email + password + TOTP code and sets both auth
// cookies. Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid request body."))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.ValidationError(errs...))
	}

	sess, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, req.TwoFactor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, util.ValidationError("Incorrect email or password."))
		case errors.Is(err, service.ErrTwoFactorFailed):
			return c.JSON(http.StatusBadRequest, util.ValidationError("Failed two factor authentication."))
		default:
			return err
		}
	}

	h.cookies.SetAuthCookies(c, sess)
	return c.JSON(http.StatusOK, sess.User)
}

// Register creates the account and returns the enrollment URI. No session is
// issued; the client must complete a full login afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid request body."))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.ValidationError(errs...))
	}

	result, err := h.auth.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return c.JSON(http.StatusBadRequest, util.FieldError("email", "Email address already taken."))
		case errors.Is(err, service.ErrInvalidEmail):
			return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid email address."))
		case errors.Is(err, util.ErrPasswordPolicy):
			return c.JSON(http.StatusBadRequest, util.ValidationError(passwordPolicyMessage))
		default:
			return err
		}
	}

	return c.JSON(http.StatusOK, RegisterResponse{User: result.User, TOTPUri: result.TOTPUri})
}

// Logout revokes the presented refresh token, or with ?all every token the
// user holds, then clears both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("not_logged_in", "Not logged in."))
	}

	var err error
	if c.QueryParams().Has("all") {
		err = h.auth.LogoutAll(c.Request().Context(), claims.User.UserID)
	} else if cookie, cerr := c.Cookie(h.cookies.RefreshName); cerr == nil {
		err = h.auth.Logout(c.Request().Context(), claims.User.UserID, cookie.Value)
	}
	if err != nil {
		return err
	}

	h.cookies.ClearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "success"})
}

// LogoutUser force-revokes every session of the given user. Admin only.
func (h *AuthHandler) LogoutUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid user ID."))
	}
	if err := h.auth.LogoutAll(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success"})
}

// WhoAmI echoes the verified session claims.
func (h *AuthHandler) WhoAmI(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("not_logged_in", "Not logged in."))
	}
	return c.JSON(http.StatusOK, echo.Map{"user": claims.User, "roles": claims.Roles})
}

// IssueResetToken mints a password-reset token for the given user and returns
// the plaintext to the issuing admin for out-of-band delivery.
func (h *AuthHandler) IssueResetToken(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid user ID."))
	}

	token, err := h.resets.IssueResetToken(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, util.Error("not_found", "User not found."))
		}
		return err
	}
	return c.JSON(http.StatusOK, token)
}

// ConsumeResetToken completes a reset: burns the token, replaces the
// password, and logs the user out everywhere.
func (h *AuthHandler) ConsumeResetToken(c echo.Context) error {
	var req ConsumeResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid request body."))
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, util.ValidationError(errs...))
	}

	err := h.resets.ConsumeResetToken(c.Request().Context(), req.UserID, req.Token, req.NewPassword, req.TwoFactor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			return c.JSON(http.StatusBadRequest, util.ValidationError("Invalid or expired reset token."))
		case errors.Is(err, service.ErrTwoFactorFailed):
			return c.JSON(http.StatusBadRequest, util.ValidationError("Failed two factor authentication."))
		case errors.Is(err, util.ErrPasswordPolicy):
			return c.JSON(http.StatusBadRequest, util.ValidationError(passwordPolicyMessage))
		default:
			return err
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success"})
}
