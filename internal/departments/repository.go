package departments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns departments ordered by name. An empty result is valid.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Department, error) {
	query := `SELECT id, name, description, is_active, created_at, updated_at FROM departments`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storeError("list", err)
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, storeError("list scan", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list rows", err)
	}
	return departments, nil
}

// Get fetches a department by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Department, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, is_active, created_at, updated_at FROM departments WHERE id = $1`, id)
	return scanDepartment(row, "get")
}

// GetByName fetches an active department by its unique display name.
func (r *Repository) GetByName(ctx context.Context, name string) (*Department, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, is_active, created_at, updated_at FROM departments WHERE name = $1 AND is_active`, name)
	return scanDepartment(row, "get by name")
}

// Create inserts a department. A duplicate active name yields httpx.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, name, description string) (*Department, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO departments (name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, TRUE, NOW(), NOW())
		RETURNING id, name, description, is_active, created_at, updated_at`, name, description)
	d, err := scanDepartment(row, "create")
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: department name already in use", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return d, nil
}

// Update applies the given column updates.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) (*Department, error) {
	query := `UPDATE departments SET updated_at = NOW()`
	args := []any{id}
	for column, value := range updates {
		args = append(args, value)
		query += fmt.Sprintf(", %s = $%d", column, len(args))
	}
	query += ` WHERE id = $1 RETURNING id, name, description, is_active, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query, args...)
	d, err := scanDepartment(row, "update")
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: department name already in use", httpx.ErrDuplicate)
		}
		return nil, err
	}
	return d, nil
}

// ListPermissions returns the ordered grant rows for a department.
func (r *Repository) ListPermissions(ctx context.Context, departmentID int64) ([]authz.DepartmentPermission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, department_id, permission_type, permission_value
		FROM department_permissions WHERE department_id = $1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, storeError("list permissions", err)
	}
	defer rows.Close()

	var perms []authz.DepartmentPermission
	for rows.Next() {
		var p authz.DepartmentPermission
		if err := rows.Scan(&p.ID, &p.DepartmentID, &p.PermissionType, &p.PermissionValue); err != nil {
			return nil, storeError("list permissions scan", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list permissions rows", err)
	}
	return perms, nil
}

// ReplacePermissions swaps the full grant set for a department in one
// transaction, keeping at most one authoritative row per action type.
func (r *Repository) ReplacePermissions(ctx context.Context, departmentID int64, grants []GrantInput) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storeError("replace permissions begin", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM department_permissions WHERE department_id = $1`, departmentID); err != nil {
		return storeError("replace permissions delete", err)
	}
	for _, grant := range grants {
		if _, err := tx.Exec(ctx, `
			INSERT INTO department_permissions (department_id, permission_type, permission_value)
			VALUES ($1, $2, $3)`, departmentID, grant.PermissionType, grant.PermissionValue); err != nil {
			return storeError("replace permissions insert", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError("replace permissions commit", err)
	}
	return nil
}

func scanDepartment(row pgx.Row, op string) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, storeError(op, err)
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: departments %s: %v", httpx.ErrStore, op, err)
}
