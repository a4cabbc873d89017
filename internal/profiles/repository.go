package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motora-erp/motora-erp/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for user profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// password_hash is NULL for accounts that only authenticate through the
// identity provider.
const profileColumns = `user_id, email, name, role, department, COALESCE(password_hash, ''), created_at, updated_at`

// FindByUserID returns the profile for an account, or httpx.ErrNotFound when
// no row exists. Absence of a profile is a normal condition: callers fall
// back to claim metadata.
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	return scanProfile(row, "find by user id")
}

// FindByEmail returns the profile for an email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = lower($1)`, email)
	return scanProfile(row, "find by email")
}

// Upsert inserts or updates the administered fields of a profile.
func (r *Repository) Upsert(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, email, name, role, department, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role,
		    department = EXCLUDED.department, updated_at = NOW()`,
		p.UserID, p.Email, p.Name, p.Role, p.Department)
	if err != nil {
		return storeError("upsert", err)
	}
	return nil
}

func scanProfile(row pgx.Row, op string) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Email, &p.Name, &p.Role, &p.Department, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, storeError(op, err)
	}
	return &p, nil
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: profiles %s: %v", httpx.ErrStore, op, err)
}
