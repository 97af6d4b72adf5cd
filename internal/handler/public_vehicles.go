package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/repository"
)

// PublicHandler exposes the vehicle catalogue to guests. Only available
// vehicles are listed.
type PublicHandler struct {
	Vehicles VehicleStore
}

func NewPublicHandler(vehicles VehicleStore) *PublicHandler {
	return &PublicHandler{Vehicles: vehicles}
}

// ListVehicles supports the optional filters ?type=, ?transmission=, ?fuel=,
// ?city= and ?search=. An unknown enum value is a 400.
func (h *PublicHandler) ListVehicles(c echo.Context) error {
	f := repository.VehicleFilter{
		AvailableOnly: true,
		City:          strings.TrimSpace(c.QueryParam("city")),
		Search:        strings.TrimSpace(c.QueryParam("search")),
	}
	if s := c.QueryParam("type"); s != "" {
		t, ok := model.ParseVehicleType(s)
		if !ok {
			return fail(c, apperr.InvalidInput("invalid vehicle type"))
		}
		f.Type = t
	}
	if s := c.QueryParam("transmission"); s != "" {
		t, ok := model.ParseTransmission(s)
		if !ok {
			return fail(c, apperr.InvalidInput("invalid transmission type"))
		}
		f.Transmission = t
	}
	if s := c.QueryParam("fuel"); s != "" {
		t, ok := model.ParseFuel(s)
		if !ok {
			return fail(c, apperr.InvalidInput("invalid fuel type"))
		}
		f.Fuel = t
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	vs, err := h.Vehicles.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}

// GetVehicle returns an available vehicle. Unavailable vehicles are hidden
// from guests and reported as not found.
func (h *PublicHandler) GetVehicle(c echo.Context) error {
	id, err := access.ParseID(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	v, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if !v.IsAvailable {
		return fail(c, repository.ErrNotFound)
	}
	return c.JSON(http.StatusOK, v)
}
