package authz

import "strings"

// MergeProfile computes the effective role and department for a caller.
// The persisted profile wins field by field when its value is non-empty,
// because profile data is the most recently administered source of truth;
// claim metadata is only a fallback against missing profile rows.
func MergeProfile(profile *Profile, claims ClaimMetadata) (role, department string) {
	role = claims.Role
	department = claims.Department
	if profile != nil {
		if strings.TrimSpace(profile.Role) != "" {
			role = profile.Role
		}
		if strings.TrimSpace(profile.Department) != "" {
			department = profile.Department
		}
	}
	return role, department
}

// IsElevated reports whether the caller holds override privilege: role
// "admin", role "ceo", or membership in the top-level department. Each
// condition is independently sufficient. Empty inputs yield false.
// Comparisons are exact and case-sensitive.
func IsElevated(profile *Profile, claims ClaimMetadata) bool {
	role, department := MergeProfile(profile, claims)
	return role == RoleAdmin || role == RoleCEO || department == DepartmentDireccion
}
