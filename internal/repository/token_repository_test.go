package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestTokenRepoValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	q := regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?")
	cols := []string{"user_id", "expires_at", "revoked_at"}

	mock.ExpectQuery(q).WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), time.Now().Add(time.Hour), nil))
	id, err := repo.ValidateRefresh(context.Background(), "live")
	require.NoError(t, err)
	require.Equal(t, uint64(3), id)

	mock.ExpectQuery(q).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), time.Now().Add(time.Hour), time.Now()))
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(q).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), time.Now().Add(-time.Hour), nil))
	_, err = repo.ValidateRefresh(context.Background(), "expired")
	require.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(q).WithArgs("unknown").WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.ValidateRefresh(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepoRevoke(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.RevokeByHash(context.Background(), "gone"))

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id=? AND revoked_at IS NULL")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}
