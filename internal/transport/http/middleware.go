package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lukedavisbbd/security-todos/internal/service"
	"github.com/lukedavisbbd/security-todos/internal/util"
)

const contextClaimsKey = "auth.claims"

// CookieManager centralizes the two auth cookies. Both are HTTP-only and
// secure; the session cookie lives minutes, the refresh cookie weeks. They
// are always set and cleared together.
type CookieManager struct {
	JWTName     string
	RefreshName string
}

func (m CookieManager) SetAuthCookies(c echo.Context, sess *service.Session) {
	c.SetCookie(&http.Cookie{
		Name:     m.JWTName,
		Value:    sess.Token,
		Expires:  sess.TokenExpiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
	c.SetCookie(&http.Cookie{
		Name:     m.RefreshName,
		Value:    sess.RefreshToken,
		Expires:  sess.RefreshExpiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
	})
}

func (m CookieManager) ClearAuthCookies(c echo.Context) {
	for _, name := range []string{m.JWTName, m.RefreshName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
		})
	}
}

// SessionGuard gates requests on a verified session cookie, transparently
// falling back to refresh-token rotation when the session claims have
// expired.
type SessionGuard struct {
	auth    *service.AuthService
	jwts    *util.JWTManager
	cookies CookieManager
}

func NewSessionGuard(auth *service.AuthService, jwts *util.JWTManager, cookies CookieManager) *SessionGuard {
	return &SessionGuard{auth: auth, jwts: jwts, cookies: cookies}
}

func (g *SessionGuard) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := g.authenticate(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("not_logged_in", "Not logged in."))
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireRole authenticates like RequireSession, then additionally demands
// the role in the claims snapshot. Missing role is 403, not 401: logged in
// but not allowed.
func (g *SessionGuard) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := g.authenticate(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("not_logged_in", "Not logged in."))
			}
			if !hasRole(claims.Roles, role) {
				return c.JSON(http.StatusForbidden, util.Error("missing_role", "Not allowed."))
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

// CurrentClaims returns the session claims attached by the guard.
func CurrentClaims(c echo.Context) (*util.SessionClaims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.SessionClaims)
	return claims, ok
}

// authenticate implements the two-step gate: verify the session cookie, and
// on failure decode it just far enough to learn the user ID and attempt a
// refresh-token rotation. Any dead end clears both cookies.
func (g *SessionGuard) authenticate(c echo.Context) (*util.SessionClaims, bool) {
	jwtCookie, err := c.Cookie(g.cookies.JWTName)
	if err != nil || jwtCookie.Value == "" {
		g.cookies.ClearAuthCookies(c)
		return nil, false
	}

	if claims, err := g.jwts.Parse(jwtCookie.Value); err == nil {
		return claims, true
	}

	// Signature must still check out even on an expired cookie.
	stale, err := g.jwts.ParseExpired(jwtCookie.Value)
	if err != nil {
		g.cookies.ClearAuthCookies(c)
		return nil, false
	}

	refreshCookie, err := c.Cookie(g.cookies.RefreshName)
	if err != nil || refreshCookie.Value == "" {
		g.cookies.ClearAuthCookies(c)
		return nil, false
	}

	sess, err := g.auth.Refresh(c.Request().Context(), stale.User.UserID, refreshCookie.Value)
	if err != nil {
		g.cookies.ClearAuthCookies(c)
		return nil, false
	}

	g.cookies.SetAuthCookies(c, sess)
	return &util.SessionClaims{User: sess.User, Roles: sess.Roles}, true
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
