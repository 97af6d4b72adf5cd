package auth

import (
	"strconv"
	"time"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

// Claims identifies the caller of a request. It is a value type: enrichment
// steps build a new Claims rather than modifying one in place.
type Claims struct {
	AccountID uint64
	Role      model.Role
	Verified  bool
	Email     string
	Name      string
	ExpiresAt time.Time
}

// SessionView is the client-visible projection of a session.
type SessionView struct {
	ID                string     `json:"id"`
	Role              model.Role `json:"role"`
	IsVerifiedByAdmin bool       `json:"isVerifiedByAdmin"`
	Name              string     `json:"name,omitempty"`
	Email             string     `json:"email,omitempty"`
	Expires           time.Time  `json:"expires"`
}

// View returns the client-visible form of c.
func (c Claims) View() SessionView {
	return SessionView{
		ID:                strconv.FormatUint(c.AccountID, 10),
		Role:              c.Role,
		IsVerifiedByAdmin: c.Verified,
		Name:              c.Name,
		Email:             c.Email,
		Expires:           c.ExpiresAt,
	}
}

func claimsFor(u model.User) Claims {
	return Claims{
		AccountID: u.ID,
		Role:      u.Role,
		Verified:  u.Verified,
		Email:     u.Email,
		Name:      u.Name,
	}
}
