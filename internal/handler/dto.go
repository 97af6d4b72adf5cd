package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
)

// userResp is the public form of an account. The password hash never
// appears in a response.
type userResp struct {
	ID                uint64     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Role              model.Role `json:"role"`
	IsVerifiedByAdmin bool       `json:"isVerifiedByAdmin"`
	PhoneNumber       string     `json:"phoneNumber,omitempty"`
	Address           string     `json:"address,omitempty"`
	Image             string     `json:"image,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func userView(u model.User) userResp {
	return userResp{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		Role:              u.Role,
		IsVerifiedByAdmin: u.Verified,
		PhoneNumber:       u.PhoneNumber,
		Address:           u.Address,
		Image:             u.Image,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func userViews(us []model.User) []userResp {
	out := make([]userResp, len(us))
	for i, u := range us {
		out[i] = userView(u)
	}
	return out
}

// number accepts a JSON number or a string holding one, as sent by HTML
// forms. Set reports whether the field was present and not null.
type number struct {
	raw string
	Set bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n.raw, n.Set = strings.TrimSpace(s), true
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	n.raw, n.Set = num.String(), true
	return nil
}

// String returns the raw text of the value.
func (n number) String() string { return n.raw }

// maxAmount is the largest value a DECIMAL(12,2) column holds.
const maxAmount = 9999999999.99

// Float parses a money amount. NaN, infinities and values outside the
// column range are rejected.
func (n number) Float(field string) (float64, error) {
	f, err := strconv.ParseFloat(n.raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > maxAmount {
		return 0, apperr.InvalidInput(field + " must be a non-negative number")
	}
	return f, nil
}

// Int parses a count that must fit the INT column.
func (n number) Int(field string) (int, error) {
	i, err := strconv.ParseInt(n.raw, 10, 32)
	if err != nil || i < 0 {
		return 0, apperr.InvalidInput(field + " must be a non-negative integer")
	}
	return int(i), nil
}

func (n number) ID(field string) (uint64, error) {
	id, err := strconv.ParseUint(n.raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidInput(field + " is not a valid id")
	}
	return id, nil
}

// validEmail accepts a bare address; display names ("Rina <r@x.com>") are
// rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
