// Package handler implements the HTTP endpoints. Handlers bind and validate
// input, consult the access checks, call the stores and translate errors
// into status codes through fail.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

const dbTimeout = 5 * time.Second

var errInvalidBody = apperr.InvalidInput("invalid body")

// fail writes err as a {"message": ...} response. Internal errors are logged
// and reported with a generic message.
func fail(c echo.Context, err error) error {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, echo.Map{"message": apperr.Message(err)})
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func claimsOf(c echo.Context) *auth.Claims {
	return middleware.ClaimsFrom(c)
}

// audit publishes ev on behalf of the caller without blocking the response.
func audit(p service.Publisher, c *auth.Claims, ev queue.AuditEvent) {
	if c != nil {
		ev.ActorID = c.AccountID
		ev.ActorRole = string(c.Role)
	}
	service.Emit(p, ev)
}
