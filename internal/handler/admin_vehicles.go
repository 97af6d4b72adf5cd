package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-rental/internal/access"
	"github.com/iliyamo/vehicle-rental/internal/apperr"
	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/service"
)

// AdminVehicleHandler serves inventory management for ADMIN and OWNER
// callers. An OWNER only ever sees and changes their own vehicles.
type AdminVehicleHandler struct {
	Vehicles VehicleStore
	Users    UserStore
	Audit    service.Publisher
}

func NewAdminVehicleHandler(vehicles VehicleStore, users UserStore, audit service.Publisher) *AdminVehicleHandler {
	return &AdminVehicleHandler{Vehicles: vehicles, Users: users, Audit: audit}
}

type vehicleReq struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Type             *string `json:"type"`
	Capacity         number  `json:"capacity"`
	TransmissionType *string `json:"transmissionType"`
	FuelType         *string `json:"fuelType"`
	DailyRate        number  `json:"dailyRate"`
	LateFeePerDay    number  `json:"lateFeePerDay"`
	MainImageURL     *string `json:"mainImageUrl"`
	LicensePlate     *string `json:"licensePlate"`
	City             *string `json:"city"`
	Address          *string `json:"address"`
	IsAvailable      *bool   `json:"isAvailable"`
	OwnerID          number  `json:"ownerId"`
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// patch validates the fields present in r. Owner reassignment is handled by
// the caller because it needs the caller's role and a datastore lookup.
func (r vehicleReq) patch() (repository.VehiclePatch, error) {
	var p repository.VehiclePatch
	if r.Name != nil {
		if trimmed(r.Name) == "" {
			return p, apperr.InvalidInput("name cannot be empty")
		}
		name := trimmed(r.Name)
		p.Name = &name
	}
	p.Description = r.Description
	if r.Type != nil {
		t, ok := model.ParseVehicleType(*r.Type)
		if !ok {
			return p, apperr.InvalidInput("invalid vehicle type")
		}
		p.Type = &t
	}
	if r.Capacity.Set {
		n, err := r.Capacity.Int("capacity")
		if err != nil {
			return p, err
		}
		p.Capacity = &n
	}
	if r.TransmissionType != nil {
		t, ok := model.ParseTransmission(*r.TransmissionType)
		if !ok {
			return p, apperr.InvalidInput("invalid transmission type")
		}
		p.TransmissionType = &t
	}
	if r.FuelType != nil {
		f, ok := model.ParseFuel(*r.FuelType)
		if !ok {
			return p, apperr.InvalidInput("invalid fuel type")
		}
		p.FuelType = &f
	}
	if r.DailyRate.Set {
		f, err := r.DailyRate.Float("dailyRate")
		if err != nil {
			return p, err
		}
		p.DailyRate = &f
	}
	if r.LateFeePerDay.Set {
		f, err := r.LateFeePerDay.Float("lateFeePerDay")
		if err != nil {
			return p, err
		}
		p.LateFeePerDay = &f
	}
	p.MainImageURL = r.MainImageURL
	if r.LicensePlate != nil {
		if trimmed(r.LicensePlate) == "" {
			return p, apperr.InvalidInput("licensePlate cannot be empty")
		}
		plate := trimmed(r.LicensePlate)
		p.LicensePlate = &plate
	}
	if r.City != nil {
		if trimmed(r.City) == "" {
			return p, apperr.InvalidInput("city cannot be empty")
		}
		city := trimmed(r.City)
		p.City = &city
	}
	p.Address = r.Address
	p.IsAvailable = r.IsAvailable
	return p, nil
}

// vehicle builds a new vehicle from r. Every field except description, image
// and address is required.
func (r vehicleReq) vehicle() (model.Vehicle, error) {
	if trimmed(r.Name) == "" || trimmed(r.Type) == "" || !r.Capacity.Set || trimmed(r.TransmissionType) == "" ||
		trimmed(r.FuelType) == "" || !r.DailyRate.Set || !r.LateFeePerDay.Set || trimmed(r.LicensePlate) == "" || trimmed(r.City) == "" {
		return model.Vehicle{}, apperr.InvalidInput("incomplete vehicle data")
	}
	p, err := r.patch()
	if err != nil {
		return model.Vehicle{}, err
	}
	v := model.Vehicle{
		Name:             *p.Name,
		Type:             *p.Type,
		Capacity:         *p.Capacity,
		TransmissionType: *p.TransmissionType,
		FuelType:         *p.FuelType,
		DailyRate:        *p.DailyRate,
		LateFeePerDay:    *p.LateFeePerDay,
		LicensePlate:     *p.LicensePlate,
		City:             *p.City,
		Description:      trimmed(p.Description),
		MainImageURL:     trimmed(p.MainImageURL),
		Address:          trimmed(p.Address),
		IsAvailable:      true,
	}
	if p.IsAvailable != nil {
		v.IsAvailable = *p.IsAvailable
	}
	if v.Capacity < 1 {
		return model.Vehicle{}, apperr.InvalidInput("capacity must be at least 1")
	}
	return v, nil
}

// ListVehicles returns all vehicles to an ADMIN and an OWNER's own vehicles
// to an OWNER.
func (h *AdminVehicleHandler) ListVehicles(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireVehicleManager(claims); err != nil {
		return fail(c, err)
	}
	var f repository.VehicleFilter
	if claims.Role == model.RoleOwner {
		f.OwnerID = claims.AccountID
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	vs, err := h.Vehicles.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}

// GetVehicle returns one vehicle the caller may manage.
func (h *AdminVehicleHandler) GetVehicle(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireVehicleManager(claims); err != nil {
		return fail(c, err)
	}
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
	if err := access.CheckVehicle(claims, v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CreateVehicle adds a vehicle. An OWNER always becomes its owner; an ADMIN
// must name an OWNER account in ownerId.
func (h *AdminVehicleHandler) CreateVehicle(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireVehicleManager(claims); err != nil {
		return fail(c, err)
	}
	var req vehicleReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	v, err := req.vehicle()
	if err != nil {
		return fail(c, err)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	ownerID, err := access.ResolveCreateOwner(ctx, claims, req.OwnerID.String(), h.Users)
	if err != nil {
		return fail(c, err)
	}
	v.OwnerID = ownerID
	if err := h.plateFree(c, v.LicensePlate, 0); err != nil {
		return fail(c, err)
	}
	if err := h.Vehicles.Create(ctx, &v); err != nil {
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionVehicleCreated, TargetType: "vehicle", TargetID: v.ID, Detail: v.LicensePlate})
	return c.JSON(http.StatusCreated, v)
}

// UpdateVehicle applies a partial update. Only an ADMIN may move a vehicle
// to another OWNER; an ownerId sent by an OWNER is ignored.
func (h *AdminVehicleHandler) UpdateVehicle(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireVehicleManager(claims); err != nil {
		return fail(c, err)
	}
	id, err := access.ParseID(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	var req vehicleReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	patch, err := req.patch()
	if err != nil {
		return fail(c, err)
	}
	if patch.Capacity != nil && *patch.Capacity < 1 {
		return fail(c, apperr.InvalidInput("capacity must be at least 1"))
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	current, err := h.Vehicles.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if err := access.CheckVehicle(claims, current); err != nil {
		return fail(c, err)
	}
	if req.OwnerID.Set && claims.Role == model.RoleAdmin {
		ownerID, err := req.OwnerID.ID("ownerId")
		if err != nil {
			return fail(c, err)
		}
		if err := access.ValidateOwner(ctx, ownerID, h.Users); err != nil {
			return fail(c, err)
		}
		patch.OwnerID = &ownerID
	}
	if patch.LicensePlate != nil {
		if err := h.plateFree(c, *patch.LicensePlate, id); err != nil {
			return fail(c, err)
		}
	}
	v, err := h.Vehicles.Update(ctx, id, patch)
	if err != nil {
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionVehicleUpdated, TargetType: "vehicle", TargetID: id})
	return c.JSON(http.StatusOK, v)
}

// DeleteVehicle removes a vehicle the caller may manage.
func (h *AdminVehicleHandler) DeleteVehicle(c echo.Context) error {
	claims := claimsOf(c)
	if err := access.RequireVehicleManager(claims); err != nil {
		return fail(c, err)
	}
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
	if err := access.CheckVehicle(claims, v); err != nil {
		return fail(c, err)
	}
	if err := h.Vehicles.Delete(ctx, id); err != nil {
		return fail(c, err)
	}

	audit(h.Audit, claims, queue.AuditEvent{Action: queue.ActionVehicleDeleted, TargetType: "vehicle", TargetID: id, Detail: v.LicensePlate})
	return c.JSON(http.StatusOK, echo.Map{"message": "vehicle deleted"})
}

// plateFree is the fast-path uniqueness check; the unique index on
// license_plate still decides races.
func (h *AdminVehicleHandler) plateFree(c echo.Context, plate string, except uint64) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	other, err := h.Vehicles.GetByPlate(ctx, plate)
	switch {
	case err == nil && other.ID != except:
		return repository.ErrPlateExists
	case err == nil, errors.Is(err, apperr.ErrNotFound):
		return nil
	}
	return err
}
