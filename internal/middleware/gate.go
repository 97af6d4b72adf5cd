package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/access"
)

// Gate applies the path rules before any handler runs. It must be installed
// after Session. API paths answer with 401/403 JSON; pages redirect to the
// login or error screen.
func Gate(rules access.Rules) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !rules.Protects(path) {
				return next(c)
			}
			claims := ClaimsFrom(c)
			outcome := rules.Decide(path, claims)
			if outcome == access.Allow {
				return next(c)
			}
			if claims != nil {
				c.Logger().Warnf("gate: %s for user %d (%s) on %s", outcome, claims.AccountID, claims.Role, path)
			}

			api := access.IsAPI(path)
			switch {
			case outcome == access.NeedLogin && api:
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
			case outcome == access.NeedLogin:
				return c.Redirect(http.StatusFound, "/auth/login?callbackUrl="+url.QueryEscape(c.Request().URL.RequestURI()))
			case api:
				return c.JSON(http.StatusForbidden, echo.Map{"message": "access denied"})
			default:
				return c.Redirect(http.StatusFound, "/auth/error?error=AccessDenied")
			}
		}
	}
}
