package model

import "strings"

// Role is the access level of an account. It is stored verbatim in the
// users.role column and in the session token's role claim.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleCustomer Role = "CUSTOMER"
)

// Roles lists every valid role, highest privilege first.
var Roles = []Role{RoleAdmin, RoleOwner, RoleCustomer}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleCustomer:
		return true
	}
	return false
}

// ManagesVehicles reports whether r may use the vehicle and order
// management screens.
func (r Role) ManagesVehicles() bool {
	switch r {
	case RoleAdmin, RoleOwner:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

// AutoVerified reports whether an account created by an administrator with
// this role starts out verified.
func (r Role) AutoVerified() bool { return r.ManagesVehicles() }

func (r Role) String() string { return string(r) }
