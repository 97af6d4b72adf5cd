package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/storetest"
)

type resolverFunc func(ctx context.Context, raw string) (auth.Claims, error)

func (f resolverFunc) Resolve(ctx context.Context, raw string) (auth.Claims, error) { return f(ctx, raw) }

// newServer wires Session and Gate the way the router does and echoes the
// caller's role back.
func newServer(t *testing.T) (*echo.Echo, map[model.Role]string) {
	t.Helper()
	users := storetest.NewUsers()
	enricher := auth.NewEnricher(users, "secret", time.Minute)
	tokens := map[model.Role]string{}
	for i, role := range model.Roles {
		u := users.Seed(string(role), string(role)+"@example.com", "pw123456", role, true)
		s, err := enricher.Issue(context.Background(), u.ID)
		require.NoError(t, err, i)
		tokens[role] = s.Token
	}

	e := echo.New()
	e.Use(Session(enricher), Gate(access.DefaultRules()))
	whoami := func(c echo.Context) error {
		if cl := ClaimsFrom(c); cl != nil {
			return c.String(http.StatusOK, string(cl.Role))
		}
		return c.String(http.StatusOK, "anonymous")
	}
	for _, p := range []string{"/", "/dashboard", "/dashboard/admin/users", "/api/admin/users", "/api/admin/vehicles", "/my-orders", "/api/vehicles"} {
		e.GET(p, whoami)
	}
	return e, tokens
}

func do(e *echo.Echo, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func TestSessionFromHeaderAndCookie(t *testing.T) {
	e, tokens := newServer(t)

	rec := do(e, "/", bearer(tokens[model.RoleOwner]))
	require.Equal(t, "OWNER", rec.Body.String())

	rec = do(e, "/", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tokens[model.RoleCustomer]})
	})
	require.Equal(t, "CUSTOMER", rec.Body.String())

	rec = do(e, "/", bearer("garbage"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())
}

func TestSessionResolverFailureIs500(t *testing.T) {
	e := echo.New()
	e.Use(Session(resolverFunc(func(context.Context, string) (auth.Claims, error) {
		return auth.Claims{}, errors.New("db down")
	})))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := do(e, "/", bearer("x"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGateAPI(t *testing.T) {
	e, tokens := newServer(t)

	require.Equal(t, http.StatusUnauthorized, do(e, "/api/admin/users", nil).Code)
	require.Equal(t, http.StatusForbidden, do(e, "/api/admin/users", bearer(tokens[model.RoleOwner])).Code)
	require.Equal(t, http.StatusForbidden, do(e, "/api/admin/users", bearer(tokens[model.RoleCustomer])).Code)
	require.Equal(t, http.StatusOK, do(e, "/api/admin/users", bearer(tokens[model.RoleAdmin])).Code)
	require.Equal(t, http.StatusOK, do(e, "/api/admin/vehicles", bearer(tokens[model.RoleOwner])).Code)
	require.Equal(t, http.StatusForbidden, do(e, "/api/admin/vehicles", bearer(tokens[model.RoleCustomer])).Code)
	require.Equal(t, http.StatusOK, do(e, "/api/vehicles", nil).Code)
}

func TestGatePages(t *testing.T) {
	e, tokens := newServer(t)

	rec := do(e, "/my-orders", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/auth/login?callbackUrl=%2Fmy-orders", rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/dashboard/admin/users", bearer(tokens[model.RoleOwner]))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/auth/error?error=AccessDenied", rec.Header().Get(echo.HeaderLocation))

	rec = do(e, "/dashboard", bearer(tokens[model.RoleCustomer]))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	g := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r := c.Request().Header.Get("X-Role"); r != "" {
				SetClaims(c, auth.Claims{AccountID: 1, Role: model.Role(r)})
			}
			return next(c)
		}
	}, RequireRole(model.RoleAdmin, model.RoleOwner))
	g.GET("/x", func(c echo.Context) error {
		require.Equal(t, "1", c.Get("user_id"))
		return c.NoContent(http.StatusNoContent)
	})

	withRole := func(r string) func(*http.Request) {
		return func(req *http.Request) { req.Header.Set("X-Role", r) }
	}
	require.Equal(t, http.StatusUnauthorized, do(e, "/x", nil).Code)
	require.Equal(t, http.StatusForbidden, do(e, "/x", withRole("CUSTOMER")).Code)
	require.Equal(t, http.StatusNoContent, do(e, "/x", withRole("OWNER")).Code)
}

func TestTokenBucketPassThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	e := echo.New()
	e.GET("/off", ok, NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	e.GET("/nil", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil))

	// Redis that cannot be reached fails open.
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = down.Close() })
	e.GET("/down", ok, NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute}, down))

	for _, p := range []string{"/off", "/nil", "/down", "/down"} {
		require.Equal(t, http.StatusOK, do(e, p, nil).Code, p)
	}
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/login")

	require.Equal(t, "rl:ip:10.0.0.1", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	require.Equal(t, "rl:ip:10.0.0.1:route:POST /api/auth/login", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
	require.Equal(t, "rl:ip:10.0.0.1:user:anon:route:POST /api/auth/login", rateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}

func TestCacheKey(t *testing.T) {
	e := echo.New()
	ctx := func(target string) echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	}
	cfg := config.CacheConfig{Prefix: "cache"}

	a := cacheKey(cfg, ctx("/api/vehicles?city=Oslo"))
	b := cacheKey(cfg, ctx("/api/vehicles?city=Bergen"))
	require.NotEqual(t, a, b)
	require.Regexp(t, `^cache:[0-9a-f]{40}$`, a)

	cfg.KeyStrategy = "route"
	require.Equal(t, cacheKey(cfg, ctx("/api/vehicles?city=Oslo")), cacheKey(cfg, ctx("/api/vehicles?city=Bergen")))
}

func TestCacheDisabledPassThrough(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/v", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, NewRedisCache(config.CacheConfig{Enabled: true}, nil))

	do(e, "/v", nil)
	do(e, "/v", nil)
	require.Equal(t, 2, calls)
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	require.False(t, cw.truncated)
	_, _ = cw.Write([]byte("def"))
	require.True(t, cw.truncated)
	require.Equal(t, "abcdef", rec.Body.String())
	require.Equal(t, "abc", cw.buf.String())
}
