package repository

import (
	"context"

	"github.com/Cansyell/laundrybackend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SeedOwner ensures the default owner account exists so a fresh install
// can log in.
func (r UserRepository) SeedOwner(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("Admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.DB.Pool.Exec(ctx, `
		INSERT INTO users (name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (email) DO NOTHING
	`, "Admin", "admin@gmail.com", domain.RoleOwner, string(hash))
	return err
}
