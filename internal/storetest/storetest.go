// Package storetest provides in-memory implementations of the account,
// vehicle and refresh token stores, plus a recording audit publisher. They
// enforce the same unique constraints as the MySQL schema and return the
// same repository sentinels.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/queue"
	"github.com/iliyamo/vehicle-rental/internal/repository"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

// Users is an in-memory account store.
type Users struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.User
	cost int
	refs func(id uint64) bool

	// Err, when set, is returned by every call.
	Err error
}

// NewUsers returns an empty store hashing with bcrypt.MinCost.
func NewUsers() *Users {
	return &Users{rows: map[uint64]model.User{}, cost: bcrypt.MinCost}
}

// Seed creates an account and returns it, panicking on failure.
func (s *Users) Seed(name, email, password string, role model.Role, verified bool) model.User {
	u := model.User{Name: name, Email: email, Role: role, Verified: verified}
	if err := s.Create(context.Background(), &u, password); err != nil {
		panic(err)
	}
	return u
}

func (s *Users) Create(_ context.Context, u *model.User, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, r := range s.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.PasswordHash = ""
	if password != "" {
		hash, err := utils.HashPassword(password, s.cost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	s.next++
	now := time.Now().UTC()
	u.ID, u.CreatedAt, u.UpdatedAt = s.next, now, now
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) List(_ context.Context, role model.Role) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []model.User{}
	for _, u := range s.rows {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Users) Update(_ context.Context, id uint64, p repository.UserPatch) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if p.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*p.Email))
		for _, r := range s.rows {
			if r.Email == email && r.ID != id {
				return model.User{}, repository.ErrEmailExists
			}
		}
		u.Email = email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := utils.HashPassword(*p.Password, s.cost)
		if err != nil {
			return model.User{}, err
		}
		u.PasswordHash = hash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	u.UpdatedAt = time.Now().UTC()
	s.rows[id] = u
	return u, nil
}

func (s *Users) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	_, ok := s.rows[id]
	err, refs := s.Err, s.refs
	s.mu.Unlock()
	switch {
	case err != nil:
		return err
	case !ok:
		return repository.ErrNotFound
	case refs != nil && refs(id):
		// Checked without holding s.mu; Vehicles locks in the other order.
		return repository.ErrInUse
	}
	s.mu.Lock()
	delete(s.rows, id)
	s.mu.Unlock()
	return nil
}

// Vehicles is an in-memory vehicle store. Owner projections are read from
// the Users store it was created with.
type Vehicles struct {
	mu    sync.Mutex
	next  uint64
	rows  map[uint64]model.Vehicle
	users *Users

	// Err, when set, is returned by every call.
	Err error
}

// NewVehicles returns an empty store linked to users, which will refuse to
// delete accounts that still own vehicles.
func NewVehicles(users *Users) *Vehicles {
	v := &Vehicles{rows: map[uint64]model.Vehicle{}, users: users}
	users.refs = v.ownsAny
	return v
}

// Seed stores v and returns it, panicking on failure.
func (s *Vehicles) Seed(v model.Vehicle) model.Vehicle {
	if err := s.Create(context.Background(), &v); err != nil {
		panic(err)
	}
	return v
}

func (s *Vehicles) ownsAny(ownerID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.rows {
		if v.OwnerID == ownerID {
			return true
		}
	}
	return false
}

func (s *Vehicles) withOwner(v model.Vehicle) model.Vehicle {
	if u, err := s.users.GetByID(context.Background(), v.OwnerID); err == nil {
		v.Owner = &model.VehicleOwner{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return v
}

func (s *Vehicles) plateTaken(plate string, except uint64) bool {
	for _, v := range s.rows {
		if v.LicensePlate == plate && v.ID != except {
			return true
		}
	}
	return false
}

func (s *Vehicles) Create(_ context.Context, v *model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	v.LicensePlate = strings.TrimSpace(v.LicensePlate)
	if s.plateTaken(v.LicensePlate, 0) {
		return repository.ErrPlateExists
	}
	s.next++
	now := time.Now().UTC()
	v.ID, v.CreatedAt, v.UpdatedAt = s.next, now, now
	v.Owner = nil
	s.rows[v.ID] = *v
	*v = s.withOwner(*v)
	return nil
}

func (s *Vehicles) GetByID(_ context.Context, id uint64) (model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Vehicle{}, s.Err
	}
	v, ok := s.rows[id]
	if !ok {
		return model.Vehicle{}, repository.ErrNotFound
	}
	return s.withOwner(v), nil
}

func (s *Vehicles) GetByPlate(_ context.Context, plate string) (model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Vehicle{}, s.Err
	}
	plate = strings.TrimSpace(plate)
	for _, v := range s.rows {
		if v.LicensePlate == plate {
			return s.withOwner(v), nil
		}
	}
	return model.Vehicle{}, repository.ErrNotFound
}

func (s *Vehicles) List(_ context.Context, f repository.VehicleFilter) ([]model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []model.Vehicle{}
	for _, v := range s.rows {
		switch {
		case f.OwnerID != 0 && v.OwnerID != f.OwnerID,
			f.AvailableOnly && !v.IsAvailable,
			f.Type != "" && v.Type != f.Type,
			f.Transmission != "" && v.TransmissionType != f.Transmission,
			f.Fuel != "" && v.FuelType != f.Fuel,
			f.City != "" && v.City != strings.TrimSpace(f.City):
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(v.Name+" "+v.Description+" "+v.City), search) {
			continue
		}
		out = append(out, s.withOwner(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Vehicles) Update(_ context.Context, id uint64, p repository.VehiclePatch) (model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Vehicle{}, s.Err
	}
	v, ok := s.rows[id]
	if !ok {
		return model.Vehicle{}, repository.ErrNotFound
	}
	if p.LicensePlate != nil {
		plate := strings.TrimSpace(*p.LicensePlate)
		if s.plateTaken(plate, id) {
			return model.Vehicle{}, repository.ErrPlateExists
		}
		v.LicensePlate = plate
	}
	if p.OwnerID != nil {
		v.OwnerID = *p.OwnerID
	}
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Type != nil {
		v.Type = *p.Type
	}
	if p.Capacity != nil {
		v.Capacity = *p.Capacity
	}
	if p.TransmissionType != nil {
		v.TransmissionType = *p.TransmissionType
	}
	if p.FuelType != nil {
		v.FuelType = *p.FuelType
	}
	if p.DailyRate != nil {
		v.DailyRate = *p.DailyRate
	}
	if p.LateFeePerDay != nil {
		v.LateFeePerDay = *p.LateFeePerDay
	}
	if p.MainImageURL != nil {
		v.MainImageURL = *p.MainImageURL
	}
	if p.City != nil {
		v.City = *p.City
	}
	if p.Address != nil {
		v.Address = *p.Address
	}
	if p.IsAvailable != nil {
		v.IsAvailable = *p.IsAvailable
	}
	v.UpdatedAt = time.Now().UTC()
	s.rows[id] = v
	return s.withOwner(v), nil
}

func (s *Vehicles) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// Tokens is an in-memory refresh token store keyed by token hash.
type Tokens struct {
	mu   sync.Mutex
	rows map[string]model.RefreshToken
}

func NewTokens() *Tokens { return &Tokens{rows: map[string]model.RefreshToken{}} }

func (s *Tokens) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tokenHash] = model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Tokens) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[tokenHash]
	if !ok || t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (s *Tokens) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.rows[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
		s.rows[tokenHash] = t
	}
	return nil
}

func (s *Tokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for h, t := range s.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.rows[h] = t
		}
	}
	return nil
}

// Events records published audit events.
type Events struct {
	mu   sync.Mutex
	list []queue.AuditEvent
}

func (e *Events) Publish(_ context.Context, ev queue.AuditEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.list = append(e.list, ev)
	return nil
}

// Actions returns the action names published so far, in order.
func (e *Events) Actions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.list))
	for i, ev := range e.list {
		out[i] = ev.Action
	}
	return out
}
