package repository

import (
	"context"
	"errors"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInUse    = errors.New("in use")
)

// IsDuplicate reports whether err comes from a unique constraint.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}

// IsInvalidReference reports whether err comes from a foreign key constraint.
func IsInvalidReference(err error) bool {
	return db.IsForeignKeyViolation(err)
}

type UserRepository struct {
	DB *db.Postgres
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL AND lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, name, email, role, password_hash, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL AND id = $1
	`, id)
	return scanUser(row)
}

func (r UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	return exists, err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, (*string)(&u.Role), &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
