package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

func TestHashPasswordUsesCostTen(t *testing.T) {
	hash, err := utils.HashPassword("secret1", utils.DefaultBcryptCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, 10, cost)

	require.True(t, utils.VerifyPassword(hash, "secret1"))
	require.False(t, utils.VerifyPassword(hash, "wrong"))
	require.False(t, utils.VerifyPassword("", "secret1"))
}

func TestHashPasswordFallsBackOnInvalidCost(t *testing.T) {
	hash, err := utils.HashPassword("pw", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, utils.DefaultBcryptCost, cost)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	in := utils.SessionClaims{Role: model.RoleOwner, Verified: true, Email: "o@x.com"}
	in.Subject = "42"

	tok, err := utils.NewSessionToken("s3cret", in, time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), tok.Exp, 5*time.Second)

	out, err := utils.ParseSessionToken("s3cret", tok.Token)
	require.NoError(t, err)
	require.Equal(t, "42", out.Subject)
	require.Equal(t, model.RoleOwner, out.Role)
	require.True(t, out.Verified)
	require.NotEmpty(t, out.ID)

	_, err = utils.ParseSessionToken("other", tok.Token)
	require.Error(t, err)
}

func TestParseSessionTokenRejectsExpiredAndForeignAlgorithms(t *testing.T) {
	in := utils.SessionClaims{Role: model.RoleAdmin}
	in.Subject = "1"
	tok, err := utils.NewSessionToken("k", in, -time.Minute)
	require.NoError(t, err)
	_, err = utils.ParseSessionToken("k", tok.Token)
	require.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = utils.ParseSessionToken("k", raw)
	require.Error(t, err)
}

func TestNewSessionTokenRequiresSubject(t *testing.T) {
	_, err := utils.NewSessionToken("k", utils.SessionClaims{Role: model.RoleCustomer}, time.Minute)
	require.Error(t, err)
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := utils.NewRefreshToken(7)
	require.NoError(t, err)
	require.Len(t, rt.Raw, 96)
	require.Len(t, utils.HashRefreshRaw(rt.Raw), 64)
	require.Equal(t, utils.HashRefreshRaw(rt.Raw), utils.HashRefreshRaw(rt.Raw))
}
