// Package access decides whether a caller may reach a path and whether they
// may act on a particular account or vehicle.
package access

import (
	"strings"

	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/model"
)

// Outcome is the gate's verdict for one request.
type Outcome int

const (
	Allow Outcome = iota
	NeedLogin
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case NeedLogin:
		return "need_login"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Rules configures the gate. Entries are path prefixes matched on segment
// boundaries: "/api/admin" matches "/api/admin" and "/api/admin/users" but
// not "/api/administrators". An entry ending in "/" matches anything below
// it. PublicExact entries only match the path itself.
type Rules struct {
	Protected   []string
	Public      []string
	PublicExact []string
	UserAdmin   []string
	Management  []string
}

// DefaultRules returns the route table of the application.
func DefaultRules() Rules {
	return Rules{
		Protected:   []string{"/dashboard", "/my-orders", "/api/admin"},
		PublicExact: []string{"/"},
		Public: []string{
			"/auth/login",
			"/auth/register",
			"/auth/error",
			"/api/auth",
			"/vehicles/",
			"/browse-vehicles",
			"/api/vehicles",
		},
		UserAdmin:  []string{"/dashboard/admin/users", "/api/admin/users"},
		Management: []string{"/dashboard/admin/vehicles", "/dashboard/admin/orders", "/api/admin/vehicles", "/api/admin/orders"},
	}
}

// Protects reports whether the gate is consulted for path at all.
func (r Rules) Protects(path string) bool {
	return matchAny(r.Protected, path)
}

// Decide applies the rules to path for the caller c, which is nil for an
// anonymous request. The first matching rule wins. Anonymous callers are
// sent to login for every non-public path, /my-orders included.
func (r Rules) Decide(path string, c *auth.Claims) Outcome {
	switch {
	case r.isPublic(path):
		return Allow
	case c == nil:
		return NeedLogin
	case matchAny(r.UserAdmin, path) && c.Role != model.RoleAdmin:
		return Denied
	case matchAny(r.Management, path) && !c.Role.ManagesVehicles():
		return Denied
	}
	return Allow
}

func (r Rules) isPublic(path string) bool {
	for _, p := range r.PublicExact {
		if path == p {
			return true
		}
	}
	return matchAny(r.Public, path)
}

// IsAPI reports whether path belongs to the JSON API rather than to a page.
// API callers get status codes; page visitors get redirects.
func IsAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		if matchPrefix(p, path) {
			return true
		}
	}
	return false
}

func matchPrefix(prefix, path string) bool {
	if strings.HasSuffix(prefix, "/") {
		return strings.HasPrefix(path, prefix)
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
