package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Cansyell/laundrybackend/internal/db"
	"github.com/Cansyell/laundrybackend/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PegawaiRepository manages employee profiles and their paired login
// accounts. A pegawai row and its user row are written and removed
// strictly together; a lone half of the pair is a data bug.
type PegawaiRepository struct {
	DB *db.Postgres
}

type CreatePegawaiParams struct {
	NamaPegawai  string
	NoTelp       string
	Email        string
	PasswordHash string
}

type UpdatePegawaiParams struct {
	NamaPegawai  string
	NoTelp       string
	Email        string
	PasswordHash *string
}

const pegawaiColumns = `
	p.id, p.user_id, p.nama_pegawai, p.no_telp, p.email, p.created_at, p.updated_at,
	u.id, u.name, u.email, u.role, u.created_at, u.updated_at`

func (r PegawaiRepository) List(ctx context.Context) ([]domain.Pegawai, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+pegawaiColumns+`
		FROM pegawai p
		JOIN users u ON u.id = p.user_id
		WHERE u.deleted_at IS NULL
		ORDER BY p.nama_pegawai ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Pegawai
	for rows.Next() {
		p, err := scanPegawai(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// Create inserts the login user and the pegawai profile in one atomic
// unit; either both rows exist afterwards or neither does.
func (r PegawaiRepository) Create(ctx context.Context, p CreatePegawaiParams) (*domain.Pegawai, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, now(), now())
		RETURNING id
	`, p.NamaPegawai, p.Email, domain.RolePegawai, p.PasswordHash).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO pegawai (user_id, nama_pegawai, no_telp, email, created_at, updated_at)
		VALUES ($1, $2, $3, lower($4), now(), now())
		RETURNING id
	`, userID, p.NamaPegawai, p.NoTelp, p.Email).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert pegawai: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r PegawaiRepository) Get(ctx context.Context, id int64) (*domain.Pegawai, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+pegawaiColumns+`
		FROM pegawai p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1 AND u.deleted_at IS NULL
	`, id)
	p, err := scanPegawai(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update propagates name/email to both halves of the pair; the password
// hash only changes when one is supplied.
func (r PegawaiRepository) Update(ctx context.Context, id int64, p UpdatePegawaiParams) (*domain.Pegawai, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE pegawai
		SET nama_pegawai = $2, no_telp = $3, email = lower($4), updated_at = now()
		WHERE id = $1
		RETURNING user_id
	`, id, p.NamaPegawai, p.NoTelp, p.Email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update pegawai: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET name = $2, email = lower($3),
		    password_hash = COALESCE($4, password_hash),
		    updated_at = now()
		WHERE id = $1
	`, userID, p.NamaPegawai, p.Email, p.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes the pegawai and its paired user together; any failure
// rolls both halves back.
func (r PegawaiRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		DELETE FROM pegawai WHERE id = $1 RETURNING user_id
	`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete pegawai: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return tx.Commit(ctx)
}

// UserIDFor resolves the paired user id, used for unique-email checks
// that must exclude the pegawai's own account.
func (r PegawaiRepository) UserIDFor(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT user_id FROM pegawai WHERE id = $1`, id).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}

// EmailTaken reports whether another user already uses email.
func (r PegawaiRepository) EmailTaken(ctx context.Context, email string, excludeUserID int64) (bool, error) {
	var taken bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE deleted_at IS NULL AND lower(email) = lower($1) AND id <> $2
		)
	`, email, excludeUserID).Scan(&taken)
	return taken, err
}

func scanPegawai(row pgx.Row) (*domain.Pegawai, error) {
	var p domain.Pegawai
	var u domain.User
	if err := row.Scan(
		&p.ID, &p.UserID, &p.NamaPegawai, &p.NoTelp, &p.Email, &p.CreatedAt, &p.UpdatedAt,
		&u.ID, &u.Name, &u.Email, (*string)(&u.Role), &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.User = &u
	return &p, nil
}
