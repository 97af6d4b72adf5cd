// Package repository defines error types that are reused across multiple
// repositories. Each sentinel wraps an apperr kind so handlers can translate
// it into a status code with errors.Is.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
)

// ErrNotFound is returned when no row matches the requested id or key.
var ErrNotFound = apperr.NotFound("not found")

// ErrEmailExists is returned when a unique email constraint is violated.
var ErrEmailExists = apperr.Conflict("email already exists")

// ErrPlateExists is returned when a unique license plate constraint is violated.
var ErrPlateExists = apperr.Conflict("license plate already exists")

// ErrInUse is returned when a row cannot be deleted because other rows still
// reference it (for example an owner who still has vehicles).
var ErrInUse = apperr.Conflict("record is still referenced")

const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicate reports whether err is a unique index violation.
func isDuplicate(err error) bool { return mysqlCode(err) == mysqlDuplicateEntry }

// isReferenced reports whether err is a foreign key violation on delete.
func isReferenced(err error) bool {
	c := mysqlCode(err)
	return c == mysqlRowIsReferenced || c == mysqlRowIsReferenced2
}
