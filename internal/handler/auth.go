package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/service"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

const oauthStateCookie = "oauth_state"

var errInvalidRefresh = apperr.Unauthenticated("invalid refresh token")

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Verifier *auth.Verifier
	Sessions *auth.Enricher
	Audit    service.Publisher

	// Google is nil when federated sign-in is not configured.
	Google auth.FederatedProvider
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens TokenStore, sessions *auth.Enricher, audit service.Publisher) *AuthHandler {
	return &AuthHandler{
		Cfg:      cfg,
		Users:    users,
		Tokens:   tokens,
		Verifier: auth.NewVerifier(users),
		Sessions: sessions,
		Audit:    audit,
	}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    auth.SessionView `json:"user"`
	Access  tokenPart        `json:"access"`
	Refresh *tokenPart       `json:"refresh,omitempty"`
}

// Register creates a CUSTOMER account awaiting admin verification. It does
// not sign the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fail(c, apperr.InvalidInput("name, email and password are required"))
	}
	if !validEmail(req.Email) {
		return fail(c, apperr.InvalidInput("invalid email"))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return fail(c, repository.ErrEmailExists)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return fail(c, err)
	}
	u := model.User{Name: req.Name, Email: req.Email, Role: model.RoleCustomer}
	if err := h.Users.Create(ctx, &u, req.Password); err != nil {
		return fail(c, err)
	}

	audit(h.Audit, nil, queue.AuditEvent{Action: queue.ActionRegister, ActorID: u.ID, ActorRole: string(u.Role), TargetType: "user", TargetID: u.ID})
	return c.JSON(http.StatusCreated, echo.Map{"message": "registration successful", "user": userView(u)})
}

// Login verifies credentials and returns a session token, a refresh token
// and the session view. The session token is also set as an HttpOnly cookie
// for page requests.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, apperr.InvalidInput("email and password are required"))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	id, err := h.Verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	s, err := h.Sessions.Issue(ctx, id.ID)
	if err != nil {
		return fail(c, err)
	}
	refresh, err := h.newRefresh(ctx, id.ID)
	if err != nil {
		return fail(c, err)
	}
	h.setSessionCookie(c, s)

	audit(h.Audit, &s.Claims, queue.AuditEvent{Action: queue.ActionLogin, TargetType: "user", TargetID: id.ID})
	return c.JSON(http.StatusOK, authResp{
		User:    s.Claims.View(),
		Access:  tokenPart{Token: s.Token, Expires: s.Expires},
		Refresh: refresh,
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair. Role and verification are read from the account again.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return fail(c, apperr.InvalidInput("refresh_token required"))
	}
	hash := utils.HashRefreshRaw(raw)

	ctx, cancel := dbContext(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, apperr.ErrNotFound) {
		return fail(c, errInvalidRefresh)
	}
	if err != nil {
		return fail(c, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, err)
	}
	s, err := h.Sessions.Issue(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	refresh, err := h.newRefresh(ctx, userID)
	if err != nil {
		return fail(c, err)
	}
	h.setSessionCookie(c, s)
	return c.JSON(http.StatusOK, authResp{
		User:    s.Claims.View(),
		Access:  tokenPart{Token: s.Token, Expires: s.Expires},
		Refresh: refresh,
	})
}

// Session returns the caller's session view.
func (h *AuthHandler) Session(c echo.Context) error {
	claims := claimsOf(c)
	if claims == nil {
		return fail(c, auth.ErrUnauthenticated)
	}
	return c.JSON(http.StatusOK, claims.View())
}

// UpdateSession re-derives the caller's role and verification status from
// the stored account and returns a new session token.
func (h *AuthHandler) UpdateSession(c echo.Context) error {
	claims := claimsOf(c)
	if claims == nil {
		return fail(c, auth.ErrUnauthenticated)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	s, err := h.Sessions.Refresh(ctx, *claims)
	if err != nil {
		return fail(c, err)
	}
	h.setSessionCookie(c, s)
	return c.JSON(http.StatusOK, authResp{
		User:   s.Claims.View(),
		Access: tokenPart{Token: s.Token, Expires: s.Expires},
	})
}

// Logout revokes the given refresh token, or every refresh token of the
// signed-in caller when none is given, and clears the session cookie. It
// always answers 204 so it can be called repeatedly.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
	}
	raw := strings.TrimSpace(req.RefreshToken)
	claims := claimsOf(c)

	ctx, cancel := dbContext(c)
	defer cancel()

	var err error
	switch {
	case raw != "":
		err = h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
	case claims != nil:
		err = h.Tokens.RevokeAllForUser(ctx, claims.AccountID)
	}
	if err != nil {
		return fail(c, err)
	}
	h.clearCookie(c, middleware.SessionCookie, "/")
	if claims != nil {
		audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionLogout, TargetType: "user", TargetID: claims.AccountID})
	}
	return c.NoContent(http.StatusNoContent)
}

// GoogleStart redirects to Google's consent screen.
func (h *AuthHandler) GoogleStart(c echo.Context) error {
	if h.Google == nil {
		return fail(c, apperr.NotFound("google sign-in is not configured"))
	}
	state, err := utils.RandomState()
	if err != nil {
		return fail(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, h.Google.AuthCodeURL(state))
}

// GoogleCallback completes Google sign-in. A first-time federated user gets
// a CUSTOMER account without a password; an email that already belongs to a
// password account is refused.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	if h.Google == nil {
		return fail(c, apperr.NotFound("google sign-in is not configured"))
	}
	ck, err := c.Cookie(oauthStateCookie)
	if err != nil || ck.Value == "" || ck.Value != c.QueryParam("state") {
		return fail(c, apperr.InvalidInput("invalid oauth state"))
	}
	h.clearCookie(c, oauthStateCookie, "/api/auth/google")
	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusFound, "/auth/error?error=OAuthCallback")
	}

	// Covers the code exchange and the profile fetch.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	fid, err := h.Google.Identify(ctx, code)
	if err != nil {
		c.Logger().Warnf("google sign-in: %v", err)
		return c.Redirect(http.StatusFound, "/auth/error?error=OAuthSignin")
	}
	u, err := h.Users.GetByEmail(ctx, fid.Email)
	if err == nil && u.HasPassword() {
		// Password accounts are never linked to a federated identity.
		return c.Redirect(http.StatusFound, "/auth/error?error=OAuthAccountNotLinked")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		u = model.User{Name: fid.Name, Email: fid.Email, Image: fid.Picture, Role: model.RoleCustomer}
		err = h.Users.Create(ctx, &u, "")
		if err == nil {
			audit(h.Audit, nil, queue.AuditEvent{Action: queue.ActionRegister, ActorID: u.ID, ActorRole: string(u.Role), TargetType: "user", TargetID: u.ID, Detail: "google"})
		}
	}
	if err != nil {
		return fail(c, err)
	}
	s, err := h.Sessions.Issue(ctx, u.ID)
	if err != nil {
		return fail(c, err)
	}
	h.setSessionCookie(c, s)
	audit(h.Audit, &s.Claims, queue.AuditEvent{Action: queue.ActionLogin, TargetType: "user", TargetID: u.ID, Detail: "google"})
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *AuthHandler) newRefresh(ctx context.Context, userID uint64) (*tokenPart, error) {
	ref, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(ref.Raw), ref.Exp); err != nil {
		return nil, err
	}
	return &tokenPart{Token: ref.Raw, Expires: ref.Exp}, nil
}

func (h *AuthHandler) setSessionCookie(c echo.Context, s auth.Session) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.Expires,
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name, path string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
