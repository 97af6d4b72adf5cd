package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
)

var userCols = []string{"id", "name", "email", "password_hash", "image", "role", "is_verified_by_admin",
	"phone_number", "address", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("A", "a@x.com", sqlmock.AnyArg(), nil, "CUSTOMER", false, nil, nil).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(7), "A", "a@x.com", "$2a$04$hash", nil, "CUSTOMER", false, nil, nil, now, now))

	u := model.User{Name: "A", Email: "  A@X.com ", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(context.Background(), &u, "secret1"))
	require.Equal(t, uint64(7), u.ID)
	require.Equal(t, "a@x.com", u.Email)
	require.Equal(t, model.RoleCustomer, u.Role)
	require.True(t, u.HasPassword())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.email'"})

	u := model.User{Email: "a@x.com", Role: model.RoleCustomer}
	err := repo.Create(context.Background(), &u, "")
	require.ErrorIs(t, err, ErrEmailExists)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserRepoGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "Ghost@X.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoListFiltersByRole(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role=? ORDER BY created_at DESC")).
		WithArgs("OWNER").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(2), "Olga", "o@x.com", nil, nil, "OWNER", true, "0812", "Jl. A", now, now))

	users, err := repo.List(context.Background(), model.RoleOwner)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.False(t, users[0].HasPassword())
	require.Equal(t, "0812", users[0].PhoneNumber)
}

func TestUserRepoUpdateMapsDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)

	email := "taken@x.com"
	role := model.RoleOwner
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email=?, role=?, updated_at=CURRENT_TIMESTAMP WHERE id=?")).
		WithArgs("taken@x.com", "OWNER", int64(3)).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	_, err := repo.Update(context.Background(), 3, UserPatch{Email: &email, Role: &role})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepoUpdateWithoutChangesOnlyReads(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.Update(context.Background(), 9, UserPatch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db, bcrypt.MinCost)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), 4), ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(int64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1451})
	require.ErrorIs(t, repo.Delete(context.Background(), 5), ErrInUse)
}
