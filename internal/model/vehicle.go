package model

import (
	"strings"
	"time"
)

// VehicleType is the kind of vehicle offered for rent.
type VehicleType string

const (
	VehicleCar        VehicleType = "CAR"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
)

// TransmissionType is the gearbox of a vehicle.
type TransmissionType string

const (
	TransmissionManual    TransmissionType = "MANUAL"
	TransmissionAutomatic TransmissionType = "AUTOMATIC"
)

// FuelType is the energy source of a vehicle.
type FuelType string

const (
	FuelGasoline FuelType = "GASOLINE"
	FuelDiesel   FuelType = "DIESEL"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
)

func (t VehicleType) Valid() bool {
	return t == VehicleCar || t == VehicleMotorcycle
}

func (t TransmissionType) Valid() bool {
	return t == TransmissionManual || t == TransmissionAutomatic
}

func (t FuelType) Valid() bool {
	switch t {
	case FuelGasoline, FuelDiesel, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

// ParseVehicleType, ParseTransmission and ParseFuel normalize user input to
// the stored enum spelling.
func ParseVehicleType(s string) (VehicleType, bool) {
	t := VehicleType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

func ParseTransmission(s string) (TransmissionType, bool) {
	t := TransmissionType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

func ParseFuel(s string) (FuelType, bool) {
	t := FuelType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Vehicle is a rentable item owned by exactly one OWNER account. It maps to
// the `vehicles` table; Owner is only populated by listing queries that join
// the owner's account.
type Vehicle struct {
	ID               uint64           `json:"id"`
	OwnerID          uint64           `json:"ownerId"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	Type             VehicleType      `json:"type"`
	Capacity         int              `json:"capacity"`
	TransmissionType TransmissionType `json:"transmissionType"`
	FuelType         FuelType         `json:"fuelType"`
	DailyRate        float64          `json:"dailyRate"`
	LateFeePerDay    float64          `json:"lateFeePerDay"`
	MainImageURL     string           `json:"mainImageUrl"`
	LicensePlate     string           `json:"licensePlate"`
	City             string           `json:"city"`
	Address          string           `json:"address"`
	IsAvailable      bool             `json:"isAvailable"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Owner            *VehicleOwner    `json:"owner,omitempty"`
}

// VehicleOwner is the public projection of a vehicle's owner.
type VehicleOwner struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
