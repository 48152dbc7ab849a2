package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/storefront/internal/platform/db"
	"github.com/odyssey-erp/storefront/internal/shared"
)

// Repository defines persistence operations for users.
type Repository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u User) (int64, error)
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	q db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{q: q}
}

var _ Repository = (*PGRepository)(nil)

const userColumns = `id, name, email, password_hash, phone, address, city, status, created_at`

// EmailExists reports whether any user, active or not, holds the email.
func (r *PGRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("identity: email lookup: %w", err)
	}
	return exists, nil
}

// CreateUser inserts an active user. A concurrent registration of the same
// email surfaces as shared.ErrDuplicate.
func (r *PGRepository) CreateUser(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, phone, address, city, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, u.City, StatusActive,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, shared.ErrDuplicate
		}
		return 0, fmt.Errorf("identity: insert user: %w", err)
	}
	return id, nil
}

// FindActiveByEmail fetches an active user including the password hash.
func (r *PGRepository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND status = $2`, email, StatusActive)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// UpdateProfile overwrites the editable fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET name = $1, phone = $2, address = $3, city = $4 WHERE id = $5`,
		upd.Name, upd.Phone, upd.Address, upd.City, id)
	if err != nil {
		return fmt.Errorf("identity: update profile %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) findOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.City, &u.Status, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("identity: find user: %w", err)
	}
	return &u, nil
}
