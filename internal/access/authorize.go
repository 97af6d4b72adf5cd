package access

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/model"
)

var (
	ErrInvalidID  = apperr.InvalidInput("invalid id")
	ErrNotOwner   = apperr.InvalidInput("ownerId must reference an account with OWNER role")
	ErrOwnerID    = apperr.InvalidInput("ownerId is required")
	ErrSelfDelete = apperr.Forbidden("you cannot delete your own account")
	ErrForbidden  = apperr.Forbidden("forbidden")
)

// ParseID parses a path identifier. Anything but a positive integer is
// rejected before the datastore is touched.
func ParseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

func caller(c *auth.Claims) error {
	if c == nil {
		return auth.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin guards every operation on user accounts.
func RequireAdmin(c *auth.Claims) error {
	if err := caller(c); err != nil {
		return err
	}
	if c.Role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// CheckUserDelete rejects self-deletion whether or not target exists, then
// requires ADMIN.
func CheckUserDelete(c *auth.Claims, target uint64) error {
	if err := caller(c); err != nil {
		return err
	}
	if c.AccountID == target {
		return ErrSelfDelete
	}
	return RequireAdmin(c)
}

// RequireVehicleManager admits ADMIN and OWNER callers.
func RequireVehicleManager(c *auth.Claims) error {
	if err := caller(c); err != nil {
		return err
	}
	if !c.Role.ManagesVehicles() {
		return ErrForbidden
	}
	return nil
}

// CheckVehicle decides whether c may read, update or delete v. ADMIN may act
// on any vehicle, OWNER only on their own.
func CheckVehicle(c *auth.Claims, v model.Vehicle) error {
	if err := RequireVehicleManager(c); err != nil {
		return err
	}
	if c.Role == model.RoleOwner && v.OwnerID != c.AccountID {
		return ErrForbidden
	}
	return nil
}

// OwnerLookup loads the account a vehicle would be assigned to.
type OwnerLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// ResolveCreateOwner returns the owner a new vehicle is assigned to. An
// OWNER always creates for themselves and requested is ignored. An ADMIN must
// name an existing OWNER account.
func ResolveCreateOwner(ctx context.Context, c *auth.Claims, requested string, lookup OwnerLookup) (uint64, error) {
	if err := RequireVehicleManager(c); err != nil {
		return 0, err
	}
	if c.Role == model.RoleOwner {
		return c.AccountID, nil
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return 0, ErrOwnerID
	}
	id, err := strconv.ParseUint(requested, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrNotOwner
	}
	if err := ValidateOwner(ctx, id, lookup); err != nil {
		return 0, err
	}
	return id, nil
}

// ValidateOwner checks that id references an account with the OWNER role.
func ValidateOwner(ctx context.Context, id uint64, lookup OwnerLookup) error {
	u, err := lookup.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrNotOwner
	}
	if err != nil {
		return err
	}
	if u.Role != model.RoleOwner {
		return ErrNotOwner
	}
	return nil
}
