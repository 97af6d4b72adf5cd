package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vehicle-rental/internal/auth"
	"github.com/iliyamo/vehicle-rental/internal/config"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/storetest"
)

type testEnv struct {
	e        *echo.Echo
	users    *storetest.Users
	vehicles *storetest.Vehicles
	tokens   *storetest.Tokens
	events   *storetest.Events
	sessions *auth.Enricher
	auth     *AuthHandler
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	users := storetest.NewUsers()
	env := &testEnv{
		e:        echo.New(),
		users:    users,
		vehicles: storetest.NewVehicles(users),
		tokens:   storetest.NewTokens(),
		events:   &storetest.Events{},
		sessions: auth.NewEnricher(users, "test-secret", 15*time.Minute),
	}
	cfg := config.Config{RefreshTTLDays: 7}
	env.auth = NewAuthHandler(cfg, users, env.tokens, env.sessions, env.events)
	au := NewAdminUserHandler(users, env.events)
	av := NewAdminVehicleHandler(env.vehicles, users, env.events)
	pub := NewPublicHandler(env.vehicles)

	e := env.e
	e.Use(middleware.Session(env.sessions))
	e.POST("/api/auth/register", env.auth.Register)
	e.POST("/api/auth/login", env.auth.Login)
	e.POST("/api/auth/refresh", env.auth.Refresh)
	e.POST("/api/auth/logout", env.auth.Logout)
	e.GET("/api/auth/session", env.auth.Session)
	e.POST("/api/auth/session", env.auth.UpdateSession)
	e.GET("/api/auth/google", env.auth.GoogleStart)
	e.GET("/api/auth/google/callback", env.auth.GoogleCallback)
	e.GET("/api/admin/users", au.ListUsers)
	e.POST("/api/admin/users", au.CreateUser)
	e.GET("/api/admin/users/:id", au.GetUser)
	e.PUT("/api/admin/users/:id", au.UpdateUser)
	e.DELETE("/api/admin/users/:id", au.DeleteUser)
	e.GET("/api/admin/vehicles", av.ListVehicles)
	e.POST("/api/admin/vehicles", av.CreateVehicle)
	e.GET("/api/admin/vehicles/:id", av.GetVehicle)
	e.PUT("/api/admin/vehicles/:id", av.UpdateVehicle)
	e.DELETE("/api/admin/vehicles/:id", av.DeleteVehicle)
	e.GET("/api/vehicles", pub.ListVehicles)
	e.GET("/api/vehicles/:id", pub.GetVehicle)
	e.GET("/auth/login", LoginPage)
	e.GET("/auth/error", AuthErrorPage)
	return env
}

// token signs a session for u directly, skipping the login endpoint.
func (env *testEnv) token(t *testing.T, u model.User) string {
	t.Helper()
	s, err := env.sessions.Issue(context.Background(), u.ID)
	require.NoError(t, err)
	return s.Token
}

func (env *testEnv) call(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func (env *testEnv) requireEvent(t *testing.T, action string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, a := range env.events.Actions() {
			if a == action {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "audit event %s", action)
}

func (env *testEnv) seed(t *testing.T) (admin, owner, other, customer model.User) {
	t.Helper()
	admin = env.users.Seed("Admin", "admin@example.com", "adminpass", model.RoleAdmin, true)
	owner = env.users.Seed("Olga", "olga@example.com", "ownerpass", model.RoleOwner, true)
	other = env.users.Seed("Otto", "otto@example.com", "ownerpass", model.RoleOwner, true)
	customer = env.users.Seed("Carl", "carl@example.com", "custpass", model.RoleCustomer, false)
	return
}

func (env *testEnv) seedVehicle(owner model.User, plate string, available bool) model.Vehicle {
	return env.vehicles.Seed(model.Vehicle{
		OwnerID:          owner.ID,
		Name:             "Avanza " + plate,
		Type:             model.VehicleCar,
		Capacity:         7,
		TransmissionType: model.TransmissionManual,
		FuelType:         model.FuelGasoline,
		DailyRate:        350000,
		LateFeePerDay:    50000,
		LicensePlate:     plate,
		City:             "Jakarta",
		IsAvailable:      available,
	})
}

func httptestRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func (env *testEnv) serve(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec.Result()
}
