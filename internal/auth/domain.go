// Package auth implements the session login flow feeding the route-guard
// middleware: email/password against user_profiles, session in Redis.
package auth

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
