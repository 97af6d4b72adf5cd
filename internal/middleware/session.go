// Package middleware contains reusable HTTP middleware: session resolution,
// the access gate, role guards, rate limiting and response caching.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/auth"
)

// SessionCookie is the cookie carrying the session token for page requests.
const SessionCookie = "session_token"

const claimsKey = "claims"

// SessionResolver turns a raw session token into claims.
type SessionResolver interface {
	Resolve(ctx context.Context, raw string) (auth.Claims, error)
}

// Session resolves the caller's session from a Bearer Authorization header
// or, failing that, the session cookie. A missing or invalid token leaves
// the request anonymous; deciding whether that is acceptable is left to the
// gate and the handlers. Handlers read the result with ClaimsFrom, or the
// "user_id" and "role" context values.
func Session(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c.Request())
			if raw == "" {
				return next(c)
			}
			claims, err := resolver.Resolve(c.Request().Context(), raw)
			if errors.Is(err, apperr.ErrUnauthenticated) {
				return next(c)
			}
			if err != nil {
				c.Logger().Errorf("session: resolve: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
			}
			SetClaims(c, claims)
			return next(c)
		}
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if ck, err := r.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// SetClaims stores claims on the request context.
func SetClaims(c echo.Context, claims auth.Claims) {
	c.Set(claimsKey, claims)
	c.Set("user_id", strconv.FormatUint(claims.AccountID, 10))
	c.Set("role", string(claims.Role))
}

// ClaimsFrom returns the caller's claims, or nil for an anonymous request.
func ClaimsFrom(c echo.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey).(auth.Claims); ok {
		return &v
	}
	return nil
}
