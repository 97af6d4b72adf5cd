package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

// ErrUnauthenticated is returned when a token is missing, malformed, expired
// or refers to an account that no longer exists.
var ErrUnauthenticated = apperr.Unauthenticated("unauthenticated")

// AccountReader loads accounts by id.
type AccountReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Session is a freshly signed token and the claims it carries.
type Session struct {
	Claims  Claims
	Token   string
	Expires time.Time
}

// Enricher owns the session token: it is the only component that creates
// or re-derives one.
type Enricher struct {
	accounts AccountReader
	secret   string
	ttl      time.Duration
}

func NewEnricher(accounts AccountReader, secret string, ttl time.Duration) *Enricher {
	return &Enricher{accounts: accounts, secret: secret, ttl: ttl}
}

// Issue signs a session for accountID. Role and verification status come
// from the current account row, not from whatever identity the login step
// produced.
func (e *Enricher) Issue(ctx context.Context, accountID uint64) (Session, error) {
	u, err := e.load(ctx, accountID)
	if err != nil {
		return Session{}, err
	}
	return e.sign(claimsFor(u))
}

// Refresh handles the explicit update trigger. The returned session carries
// the role and verification flag currently stored for the account, replacing
// those in c wholesale.
func (e *Enricher) Refresh(ctx context.Context, c Claims) (Session, error) {
	return e.Issue(ctx, c.AccountID)
}

// Resolve validates raw and returns its claims. A token whose account has
// been deleted since issue is rejected.
func (e *Enricher) Resolve(ctx context.Context, raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, ErrUnauthenticated
	}
	sc, err := utils.ParseSessionToken(e.secret, raw)
	if err != nil {
		return Claims{}, ErrUnauthenticated
	}
	id, err := strconv.ParseUint(sc.Subject, 10, 64)
	if err != nil || id == 0 || !sc.Role.Valid() {
		return Claims{}, ErrUnauthenticated
	}
	if _, err := e.load(ctx, id); err != nil {
		return Claims{}, err
	}
	c := Claims{
		AccountID: id,
		Role:      sc.Role,
		Verified:  sc.Verified,
		Email:     sc.Email,
		Name:      sc.Name,
	}
	if sc.ExpiresAt != nil {
		c.ExpiresAt = sc.ExpiresAt.Time
	}
	return c, nil
}

func (e *Enricher) load(ctx context.Context, id uint64) (model.User, error) {
	u, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, ErrUnauthenticated
		}
		return model.User{}, err
	}
	return u, nil
}

func (e *Enricher) sign(c Claims) (Session, error) {
	sc := utils.SessionClaims{Role: c.Role, Verified: c.Verified, Email: c.Email, Name: c.Name}
	sc.Subject = strconv.FormatUint(c.AccountID, 10)
	tok, err := utils.NewSessionToken(e.secret, sc, e.ttl)
	if err != nil {
		return Session{}, err
	}
	c.ExpiresAt = tok.Exp
	return Session{Claims: c, Token: tok.Token, Expires: tok.Exp}, nil
}
