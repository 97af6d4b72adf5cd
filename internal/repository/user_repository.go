package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/vehicle-rental/internal/model"
	"github.com/iliyamo/vehicle-rental/internal/utils"
)

const userColumns = "id,name,email,password_hash,image,role,is_verified_by_admin,phone_number,address,created_at,updated_at"

// UserPatch lists the account fields a partial update may change. Nil
// fields are left untouched. Password is plain text and hashed here.
type UserPatch struct {
	Name        *string
	Email       *string
	Password    *string
	Role        *model.Role
	PhoneNumber *string
	Address     *string
	Verified    *bool
}

// UserRepo persists accounts in the `users` table.
type UserRepo struct {
	DB   *sql.DB
	cost int
}

// NewUserRepo returns a UserRepo that hashes passwords with the given bcrypt cost.
func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	return &UserRepo{DB: db, cost: bcryptCost}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u                                 model.User
		name, hash, image, phone, address sql.NullString
		role                              string
	)
	err := s.Scan(&u.ID, &name, &u.Email, &hash, &image, &role, &u.Verified, &phone, &address, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Name, u.PasswordHash, u.Image = name.String, hash.String, image.String
	u.PhoneNumber, u.Address = phone.String, address.String
	u.Role = model.Role(role)
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u and fills in its ID and timestamps. When password is
// non-empty it is hashed; an empty password creates an account that can
// only sign in through an external identity provider.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string) error {
	u.Email = normalizeEmail(u.Email)
	u.PasswordHash = ""
	if password != "" {
		hash, err := utils.HashPassword(password, r.cost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, image, role, is_verified_by_admin, phone_number, address)
		 VALUES (?,?,?,?,?,?,?,?)`,
		nullable(u.Name), u.Email, nullable(u.PasswordHash), nullable(u.Image), string(u.Role), u.Verified,
		nullable(u.PhoneNumber), nullable(u.Address))
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
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
	*u = created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// List returns accounts newest first. A zero role lists every account.
func (r *UserRepo) List(ctx context.Context, role model.Role) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	var args []any
	if role != "" {
		q += " WHERE role=?"
		args = append(args, string(role))
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies p to the account and returns the stored result.
func (r *UserRepo) Update(ctx context.Context, id uint64, p UserPatch) (model.User, error) {
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name=?"), append(args, nullable(*p.Name))
	}
	if p.Email != nil {
		sets, args = append(sets, "email=?"), append(args, normalizeEmail(*p.Email))
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := utils.HashPassword(*p.Password, r.cost)
		if err != nil {
			return model.User{}, err
		}
		sets, args = append(sets, "password_hash=?"), append(args, hash)
	}
	if p.Role != nil {
		sets, args = append(sets, "role=?"), append(args, string(*p.Role))
	}
	if p.PhoneNumber != nil {
		sets, args = append(sets, "phone_number=?"), append(args, nullable(*p.PhoneNumber))
	}
	if p.Address != nil {
		sets, args = append(sets, "address=?"), append(args, nullable(*p.Address))
	}
	if p.Verified != nil {
		sets, args = append(sets, "is_verified_by_admin=?"), append(args, *p.Verified)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at=CURRENT_TIMESTAMP")
		args = append(args, id)
		q := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id=?"
		if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes the account. Accounts that still own vehicles cannot be
// removed and yield ErrInUse.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrInUse
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
