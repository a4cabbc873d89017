// Package profiles manages user_profiles rows: the administered role and
// department mirror for each identity-provider account.
package profiles

import (
	"time"

	"github.com/motora-erp/motora-erp/internal/authz"
)

// Profile represents a user_profiles row. UserID is the identity provider's
// opaque account identifier.
type Profile struct {
	UserID       string
	Email        string
	Name         string
	Role         string
	Department   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Authz projects the profile into the resolver's shape.
func (p *Profile) Authz() *authz.Profile {
	if p == nil {
		return nil
	}
	return &authz.Profile{Role: p.Role, Department: p.Department}
}
