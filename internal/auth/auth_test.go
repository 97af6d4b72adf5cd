package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/storetest"
)

const secret = "test-secret"

func TestVerify(t *testing.T) {
	ctx := context.Background()
	users := storetest.NewUsers()
	u := users.Seed("Ann", "ann@example.com", "hunter22", model.RoleOwner, true)
	federated := model.User{Email: "fed@example.com", Role: model.RoleCustomer}
	require.NoError(t, users.Create(ctx, &federated, ""))

	v := NewVerifier(users)

	id, err := v.Verify(ctx, "  ANN@example.com ", "hunter22")
	require.NoError(t, err)
	require.Equal(t, Identity{ID: u.ID, Name: "Ann", Email: "ann@example.com", Role: model.RoleOwner, Verified: true}, id)

	for name, tc := range map[string][2]string{
		"wrong password": {"ann@example.com", "hunter23"},
		"unknown email":  {"nobody@example.com", "hunter22"},
		"no password":    {"fed@example.com", "anything"},
		"empty input":    {"", ""},
	} {
		_, err := v.Verify(ctx, tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidCredentials, name)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated, name)
	}
}

func TestVerifyPropagatesStoreFailure(t *testing.T) {
	users := storetest.NewUsers()
	users.Err = context.DeadlineExceeded
	_, err := NewVerifier(users).Verify(context.Background(), "a@example.com", "pw")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueReadsRoleFromStore(t *testing.T) {
	ctx := context.Background()
	users := storetest.NewUsers()
	u := users.Seed("Ann", "ann@example.com", "hunter22", model.RoleCustomer, false)
	e := NewEnricher(users, secret, time.Minute)

	s, err := e.Issue(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleCustomer, s.Claims.Role)
	require.False(t, s.Claims.Verified)
	require.WithinDuration(t, time.Now().Add(time.Minute), s.Expires, 5*time.Second)

	c, err := e.Resolve(ctx, s.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, c.AccountID)
	require.Equal(t, model.RoleCustomer, c.Role)

	_, err = e.Issue(ctx, 9999)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	ctx := context.Background()
	users := storetest.NewUsers()
	u := users.Seed("Ann", "ann@example.com", "hunter22", model.RoleCustomer, false)
	e := NewEnricher(users, secret, time.Minute)

	s, err := e.Issue(ctx, u.ID)
	require.NoError(t, err)

	role, verified := model.RoleOwner, true
	_, err = users.Update(ctx, u.ID, repository.UserPatch{Role: &role, Verified: &verified})
	require.NoError(t, err)

	// The old token still carries the old role until refreshed.
	c, err := e.Resolve(ctx, s.Token)
	require.NoError(t, err)
	require.Equal(t, model.RoleCustomer, c.Role)

	r, err := e.Refresh(ctx, c)
	require.NoError(t, err)
	require.Equal(t, model.RoleOwner, r.Claims.Role)
	require.True(t, r.Claims.Verified)
	require.NotEqual(t, s.Token, r.Token)
	require.Equal(t, model.RoleCustomer, c.Role)
}

func TestResolveRejects(t *testing.T) {
	ctx := context.Background()
	users := storetest.NewUsers()
	u := users.Seed("Ann", "ann@example.com", "hunter22", model.RoleAdmin, true)
	e := NewEnricher(users, secret, time.Minute)

	s, err := e.Issue(ctx, u.ID)
	require.NoError(t, err)

	_, err = e.Resolve(ctx, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.Resolve(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = NewEnricher(users, "other-secret", time.Minute).Resolve(ctx, s.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	expired, err := NewEnricher(users, secret, -time.Minute).Issue(ctx, u.ID)
	require.NoError(t, err)
	_, err = e.Resolve(ctx, expired.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, users.Delete(ctx, u.ID))
	_, err = e.Resolve(ctx, s.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestView(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Claims{AccountID: 17, Role: model.RoleOwner, Verified: true, Name: "Ann", Email: "ann@example.com", ExpiresAt: exp}
	require.Equal(t, SessionView{
		ID:                strconv.Itoa(17),
		Role:              model.RoleOwner,
		IsVerifiedByAdmin: true,
		Name:              "Ann",
		Email:             "ann@example.com",
		Expires:           exp,
	}, c.View())
}
