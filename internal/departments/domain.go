// Package departments implements the department and grant store adapter:
// CRUD over the departments and department_permissions collections plus a
// cached permission-set resolver feeding the capability evaluator.
package departments

import "time"

// Department is a grant-holding organizational unit. Name is unique among
// active departments so evaluation by display name is unambiguous.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateDepartmentRequest is the admin payload for creating a department.
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest carries optional field updates. Deactivation hides
// the department from selection but keeps its historical grants.
type UpdateDepartmentRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// GrantInput is one grant in a replace-grants payload.
type GrantInput struct {
	PermissionType  string `json:"permission_type" validate:"required"`
	PermissionValue string `json:"permission_value" validate:"required"`
}
