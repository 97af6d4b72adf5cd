package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

// AdminUserHandler serves account management. Every endpoint is ADMIN only.
type AdminUserHandler struct {
	Users UserStore
	Audit service.Publisher
}

func NewAdminUserHandler(users UserStore, audit service.Publisher) *AdminUserHandler {
	return &AdminUserHandler{Users: users, Audit: audit}
}

type createUserReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// updateUserReq distinguishes absent fields (nil) from empty ones.
type updateUserReq struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	Password          *string `json:"password"`
	Role              *string `json:"role"`
	PhoneNumber       *string `json:"phoneNumber"`
	Address           *string `json:"address"`
	IsVerifiedByAdmin *bool   `json:"isVerifiedByAdmin"`
}

// ListUsers returns every account, newest first, optionally filtered by
// ?role=. An unknown role value is ignored.
func (h *AdminUserHandler) ListUsers(c echo.Context) error {
	if err := access.RequireAdmin(claimsOf(c)); err != nil {
		return fail(c, err)
	}
	role, ok := model.ParseRole(c.QueryParam("role"))
	if !ok {
		role = ""
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.List(ctx, role)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, userViews(users))
}

// CreateUser creates an account with any role. ADMIN and OWNER accounts
// start out verified.
func (h *AdminUserHandler) CreateUser(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireAdmin(claims); err != nil {
		return fail(c, err)
	}
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" || strings.TrimSpace(req.Role) == "" {
		return fail(c, apperr.InvalidInput("name, email, password and role are required"))
	}
	if !validEmail(req.Email) {
		return fail(c, apperr.InvalidInput("invalid email"))
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return fail(c, apperr.InvalidInput("invalid role"))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return fail(c, repository.ErrEmailExists)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return fail(c, err)
	}
	u := model.User{
		Name:        req.Name,
		Email:       req.Email,
		Role:        role,
		Verified:    role.AutoVerified(),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Address:     strings.TrimSpace(req.Address),
	}
	if err := h.Users.Create(ctx, &u, req.Password); err != nil {
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionUserCreated, TargetType: "user", TargetID: u.ID, Detail: string(role)})
	return c.JSON(http.StatusCreated, echo.Map{"message": "user created", "user": userView(u)})
}

// GetUser returns one account.
func (h *AdminUserHandler) GetUser(c echo.Context) error {
	if err := access.RequireAdmin(claimsOf(c)); err != nil {
		return fail(c, err)
	}
	id, err := access.ParseID(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, userView(u))
}

// UpdateUser applies a partial update. Only fields present in the body
// change; an empty password leaves the current one in place.
func (h *AdminUserHandler) UpdateUser(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireAdmin(claims); err != nil {
		return fail(c, err)
	}
	id, err := access.ParseID(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	patch, err := req.patch()
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return fail(c, err)
	}
	if patch.Email != nil {
		other, err := h.Users.GetByEmail(ctx, *patch.Email)
		switch {
		case err == nil && other.ID != id:
			return fail(c, apperr.Conflict("email is already used by another account"))
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return fail(c, err)
		}
	}
	u, err := h.Users.Update(ctx, id, patch)
	if err != nil {
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionUserUpdated, TargetType: "user", TargetID: id})
	return c.JSON(http.StatusOK, userView(u))
}

func (r updateUserReq) patch() (repository.UserPatch, error) {
	p := repository.UserPatch{
		PhoneNumber: r.PhoneNumber,
		Address:     r.Address,
		Verified:    r.IsVerifiedByAdmin,
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		p.Name = &name
	}
	if r.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*r.Email))
		if !validEmail(email) {
			return p, apperr.InvalidInput("invalid email")
		}
		p.Email = &email
	}
	if r.Password != nil && *r.Password != "" {
		p.Password = r.Password
	}
	if r.Role != nil {
		role, ok := model.ParseRole(*r.Role)
		if !ok {
			return p, apperr.InvalidInput("invalid role")
		}
		p.Role = &role
	}
	return p, nil
}

// DeleteUser removes an account. Administrators can never delete their own
// account; that check runs before the target is looked up.
func (h *AdminUserHandler) DeleteUser(c echo.Context) error {
	claims := claimsOf(c)
	id, err := access.ParseID(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if err := access.CheckUserDelete(claims, id); err != nil {
		return fail(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return fail(c, apperr.Conflict("account still owns vehicles"))
		}
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionUserDeleted, TargetType: "user", TargetID: id})
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
