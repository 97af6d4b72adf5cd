// Package router defines how HTTP routes are registered. Install must run
// before any Register function so that the session and the access gate wrap
// every route.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
)

// Install resolves the caller's session on every request and then applies
// the path rules, so a denied request never reaches a handler.
func Install(e *echo.Echo, sessions middleware.SessionResolver, rules access.Rules) {
	e.Use(middleware.Session(sessions), middleware.Gate(rules))
}

// RegisterRoutes registers the probes used by load balancers.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the session endpoints under /api/auth. limiter
// guards the endpoints that accept credentials.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/session", a.Session, middleware.RequireSession())
	g.POST("/session", a.UpdateSession, middleware.RequireSession())
	g.GET("/google", a.GoogleStart)
	g.GET("/google/callback", a.GoogleCallback)
}

// RegisterPublic registers the guest vehicle catalogue behind the response
// cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/api/vehicles", cache)
	g.GET("", p.ListVehicles)
	g.GET("/:id", p.GetVehicle)
}

// RegisterPages registers the server-rendered screens.
func RegisterPages(e *echo.Echo) {
	e.GET("/", handler.Page("Vehicle rental"))
	e.GET("/auth/login", handler.LoginPage)
	e.GET("/auth/register", handler.Page("Create an account"))
	e.GET("/auth/error", handler.AuthErrorPage)
	e.GET("/browse-vehicles", handler.Page("Browse vehicles"))
	e.GET("/vehicles/:id", handler.Page("Vehicle details"))
	e.GET("/dashboard", handler.Page("Dashboard"))
	e.GET("/dashboard/admin/users", handler.Page("Manage users"))
	e.GET("/dashboard/admin/vehicles", handler.Page("Manage vehicles"))
	e.GET("/dashboard/admin/orders", handler.Page("Manage orders"))
	e.GET("/my-orders", handler.Page("My orders"))
}
