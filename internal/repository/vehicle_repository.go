// Package repository contains data access logic separated from HTTP handlers.
// This file implements persistence for vehicles. Every vehicle belongs to a
// single OWNER account; ownership checks are made by the caller against the
// OwnerID returned here.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/vehicle-rental/internal/model"
)

const vehicleColumns = `v.id, v.owner_id, v.name, v.description, v.type, v.capacity, v.transmission_type,
	v.fuel_type, v.daily_rate, v.late_fee_per_day, v.main_image_url, v.license_plate, v.city, v.address,
	v.is_available, v.created_at, v.updated_at, u.id, u.name, u.email`

const vehicleFrom = " FROM vehicles v JOIN users u ON u.id = v.owner_id"

// VehicleFilter narrows List. Zero values disable a condition.
type VehicleFilter struct {
	OwnerID       uint64
	AvailableOnly bool
	Type          model.VehicleType
	Transmission  model.TransmissionType
	Fuel          model.FuelType
	City          string
	Search        string
}

// VehiclePatch lists the vehicle fields a partial update may change.
type VehiclePatch struct {
	OwnerID          *uint64
	Name             *string
	Description      *string
	Type             *model.VehicleType
	Capacity         *int
	TransmissionType *model.TransmissionType
	FuelType         *model.FuelType
	DailyRate        *float64
	LateFeePerDay    *float64
	MainImageURL     *string
	LicensePlate     *string
	City             *string
	Address          *string
	IsAvailable      *bool
}

// VehicleRepo encapsulates all database queries related to vehicles.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo constructs a VehicleRepo with the provided DB handle.
func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func scanVehicle(s rowScanner) (model.Vehicle, error) {
	var (
		v                          model.Vehicle
		desc, image, address, name sql.NullString
		owner                      model.VehicleOwner
	)
	err := s.Scan(&v.ID, &v.OwnerID, &v.Name, &desc, &v.Type, &v.Capacity, &v.TransmissionType,
		&v.FuelType, &v.DailyRate, &v.LateFeePerDay, &image, &v.LicensePlate, &v.City, &address,
		&v.IsAvailable, &v.CreatedAt, &v.UpdatedAt, &owner.ID, &name, &owner.Email)
	if err != nil {
		return model.Vehicle{}, err
	}
	v.Description, v.MainImageURL, v.Address = desc.String, image.String, address.String
	owner.Name = name.String
	v.Owner = &owner
	return v, nil
}

// Create inserts a new vehicle. On success the vehicle's ID, timestamps and
// owner projection are populated from the stored row.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	const q = `INSERT INTO vehicles (owner_id, name, description, type, capacity, transmission_type, fuel_type,
		daily_rate, late_fee_per_day, main_image_url, license_plate, city, address, is_available)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, v.OwnerID, v.Name, nullable(v.Description), string(v.Type), v.Capacity,
		string(v.TransmissionType), string(v.FuelType), v.DailyRate, v.LateFeePerDay, nullable(v.MainImageURL),
		v.LicensePlate, v.City, nullable(v.Address), v.IsAvailable)
	if err != nil {
		if isDuplicate(err) {
			return ErrPlateExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*v = created
	return nil
}

// GetByID fetches a vehicle by its ID regardless of owner.
func (r *VehicleRepo) GetByID(ctx context.Context, id uint64) (model.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+vehicleColumns+vehicleFrom+" WHERE v.id = ?", id)
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrNotFound
	}
	return v, err
}

// GetByPlate fetches a vehicle by license plate.
func (r *VehicleRepo) GetByPlate(ctx context.Context, plate string) (model.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+vehicleColumns+vehicleFrom+" WHERE v.license_plate = ?",
		strings.TrimSpace(plate))
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vehicle{}, ErrNotFound
	}
	return v, err
}

// List returns vehicles matching f, newest first.
func (r *VehicleRepo) List(ctx context.Context, f VehicleFilter) ([]model.Vehicle, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != 0 {
		where, args = append(where, "v.owner_id = ?"), append(args, f.OwnerID)
	}
	if f.AvailableOnly {
		where = append(where, "v.is_available = TRUE")
	}
	if f.Type != "" {
		where, args = append(where, "v.type = ?"), append(args, string(f.Type))
	}
	if f.Transmission != "" {
		where, args = append(where, "v.transmission_type = ?"), append(args, string(f.Transmission))
	}
	if f.Fuel != "" {
		where, args = append(where, "v.fuel_type = ?"), append(args, string(f.Fuel))
	}
	if c := strings.TrimSpace(f.City); c != "" {
		where, args = append(where, "v.city = ?"), append(args, c)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		where = append(where, "(v.name LIKE ? OR v.description LIKE ? OR v.city LIKE ?)")
		args = append(args, like, like, like)
	}

	q := "SELECT " + vehicleColumns + vehicleFrom
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY v.created_at DESC, v.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update applies p and returns the stored result.
func (r *VehicleRepo) Update(ctx context.Context, id uint64, p VehiclePatch) (model.Vehicle, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if p.OwnerID != nil {
		add("owner_id", *p.OwnerID)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", nullable(*p.Description))
	}
	if p.Type != nil {
		add("type", string(*p.Type))
	}
	if p.Capacity != nil {
		add("capacity", *p.Capacity)
	}
	if p.TransmissionType != nil {
		add("transmission_type", string(*p.TransmissionType))
	}
	if p.FuelType != nil {
		add("fuel_type", string(*p.FuelType))
	}
	if p.DailyRate != nil {
		add("daily_rate", *p.DailyRate)
	}
	if p.LateFeePerDay != nil {
		add("late_fee_per_day", *p.LateFeePerDay)
	}
	if p.MainImageURL != nil {
		add("main_image_url", nullable(*p.MainImageURL))
	}
	if p.LicensePlate != nil {
		add("license_plate", strings.TrimSpace(*p.LicensePlate))
	}
	if p.City != nil {
		add("city", *p.City)
	}
	if p.Address != nil {
		add("address", nullable(*p.Address))
	}
	if p.IsAvailable != nil {
		add("is_available", *p.IsAvailable)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
		args = append(args, id)
		q := "UPDATE vehicles SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			if isDuplicate(err) {
				return model.Vehicle{}, ErrPlateExists
			}
			return model.Vehicle{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a vehicle by id.
func (r *VehicleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
