package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

// RequireRole aborts with 401 when the request is anonymous and with 403 when
// the caller's role is not one of roles. It assumes Session has already run.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "authentication required"})
			}
			if !allowed[claims.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequireSession aborts anonymous requests with 401.
func RequireSession() echo.MiddlewareFunc {
	return RequireRole(model.Roles...)
}
