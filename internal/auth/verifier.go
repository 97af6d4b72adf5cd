package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

// ErrInvalidCredentials is returned for an unknown email, an account without
// a password, or a wrong password. The three cases are indistinguishable to
// the caller.
var ErrInvalidCredentials = apperr.Unauthenticated("invalid credentials")

// AccountFinder looks up accounts by email.
type AccountFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// Identity is what a successful verification reveals about an account.
type Identity struct {
	ID       uint64
	Name     string
	Email    string
	Role     model.Role
	Verified bool
}

// Verifier checks email/password pairs. It holds no state between calls.
type Verifier struct {
	accounts AccountFinder
}

func NewVerifier(accounts AccountFinder) *Verifier {
	return &Verifier{accounts: accounts}
}

// Verify returns the identity of the account matching email and password.
func (v *Verifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}
	u, err := v.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if !u.HasPassword() || !utils.VerifyPassword(u.PasswordHash, password) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Verified: u.Verified}, nil
}
