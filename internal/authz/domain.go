// Package authz implements the department-based access control engine:
// typed permission records, a capability evaluator, the elevated-caller
// resolver, and the declarative feature-block table. Everything in this
// package is pure; loading permission rows is the caller's concern.
package authz

// PermTypeRouteAccess tags permission rows that grant access to a route path.
const PermTypeRouteAccess = "route_access"

// GrantedValue is the only permission value that grants an action. Any other
// stored value, including casing variants, denies.
const GrantedValue = "true"

// Action vocabulary. Action rows carry one of these as permission_type.
const (
	ActionValidateQuality  = "can_validate"
	ActionApproveSales     = "can_approve_sales"
	ActionManageProduction = "can_manage_production"
	ActionViewReports      = "can_view_reports"
	ActionExportReports    = "can_export_reports"
	ActionManageUsers      = "can_manage_users"
	ActionSendEmails       = "can_send_emails"
)

// Actions lists the full action vocabulary.
func Actions() []string {
	return []string{
		ActionValidateQuality,
		ActionApproveSales,
		ActionManageProduction,
		ActionViewReports,
		ActionExportReports,
		ActionManageUsers,
		ActionSendEmails,
	}
}

// Roles and the distinguished top-level department that grant override
// privilege regardless of department-level grants.
const (
	RoleAdmin           = "admin"
	RoleCEO             = "ceo"
	DepartmentDireccion = "Dirección"
)

// DepartmentPermission is one persisted grant for a department.
type DepartmentPermission struct {
	ID              int64  `json:"id"`
	DepartmentID    int64  `json:"department_id"`
	PermissionType  string `json:"permission_type"`
	PermissionValue string `json:"permission_value"`
}

// ClaimMetadata carries role/department mirrored inside a verified
// credential's claims. May be empty.
type ClaimMetadata struct {
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// Profile is the persisted role/department pair for a caller. When present it
// takes field-level precedence over claim metadata.
type Profile struct {
	Role       string
	Department string
}

// FeatureBlock declares the conjunction of route and action grants required
// to use one product feature. The table is data, not code, so it can be
// unit-tested by iterating entries generically.
type FeatureBlock struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Routes      []string `json:"routes"`
	Permissions []string `json:"permissions"`
	Examples    []string `json:"examples"`
}

// EvaluationResult reports a feature decision together with the precise
// missing grants, so callers can render or log why access was denied.
type EvaluationResult struct {
	Granted            bool     `json:"granted"`
	MissingRoutes      []string `json:"missing_routes"`
	MissingPermissions []string `json:"missing_permissions"`
}
