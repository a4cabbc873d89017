// Package invites implements the privileged user-invitation flow: only
// elevated callers may invite, and the whole pipeline runs behind the
// bearer-token guard rather than the session.
package invites

// InviteRequest is the payload accepted by the invitation endpoint.
type InviteRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// InvitedUser is the outcome reported to the caller.
type InvitedUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}
