package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "rental")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("RABBITMQ_URL", "amqp://broker/")

	c := Load()
	require.Equal(t, "8080", c.Port)
	require.Equal(t, "3306", c.DBPort)
	require.Equal(t, 10, c.BcryptCost)
	require.Equal(t, 15*time.Minute, c.AccessTTL())
	require.False(t, c.AutoMigrate)
	require.True(t, c.SecureCookies)
	require.Equal(t, "amqp://broker/", c.AMQPURL)
	require.Equal(t, "logs", c.AuditLogDir)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "Yes")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "2m")
	require.True(t, envBool("X_BOOL", false))
	require.Equal(t, 3, envInt("X_INT", 3))
	require.Equal(t, 2*time.Minute, envDur("X_DUR", time.Second))
	require.Equal(t, "d", envStr("X_UNSET", "d"))
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{RefillInterval: 2 * time.Second}.normalize()
	require.Equal(t, 1, c.Capacity)
	require.Equal(t, 1, c.RefillTokens)
	require.Equal(t, 10*time.Second, c.TTL)
}

func TestOAuthEnabled(t *testing.T) {
	require.False(t, OAuthConfig{GoogleClientID: "id"}.Enabled())
	require.True(t, OAuthConfig{GoogleClientID: "id", GoogleClientSecret: "s", GoogleRedirectURL: "http://x/cb"}.Enabled())
}

func TestParseMethods(t *testing.T) {
	require.Equal(t, map[string]bool{"GET": true, "HEAD": true}, parseMethods(" get, HEAD ,,"))
}
