package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/handler"
	"github.com/iliyamo/vehicle-rental/internal/middleware"
	"github.com/iliyamo/vehicle-rental/internal/model"
)

// RegisterAdmin registers account and inventory management under
// /api/admin. The role guards repeat the gate's decision for these groups;
// handlers still make the row-level checks.
func RegisterAdmin(e *echo.Echo, u *handler.AdminUserHandler, v *handler.AdminVehicleHandler) {
	users := e.Group("/api/admin/users", middleware.RequireRole(model.RoleAdmin))
	users.GET("", u.ListUsers)
	users.POST("", u.CreateUser)
	users.GET("/:id", u.GetUser)
	users.PUT("/:id", u.UpdateUser)
	users.DELETE("/:id", u.DeleteUser)

	vehicles := e.Group("/api/admin/vehicles", middleware.RequireRole(model.RoleAdmin, model.RoleOwner))
	vehicles.GET("", v.ListVehicles)
	vehicles.POST("", v.CreateVehicle)
	vehicles.GET("/:id", v.GetVehicle)
	vehicles.PUT("/:id", v.UpdateVehicle)
	vehicles.DELETE("/:id", v.DeleteVehicle)
}
