// Package authn implements the credential guard: bearer-token extraction and
// verification against an identity provider collaborator.
package authn

import (
	"context"
	"net/http"
	"strings"

	"github.com/motora-erp/motora-erp/internal/authz"
)

const bearerPrefix = "Bearer "

// Identity is a verified caller, as reported by the identity provider.
type Identity struct {
	UserID   string
	Email    string
	Metadata authz.ClaimMetadata
}

// Verifier checks an opaque credential and returns the identity it belongs
// to. Implementations: the identity-provider HTTP client and the local JWT
// verifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// AuthError is a tagged authentication failure. Handlers use Status directly
// as the response code.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Guard validates Authorization headers. One verifier call per invocation;
// no caching, no token refresh.
type Guard struct {
	verifier Verifier
}

// NewGuard constructs a Guard.
func NewGuard(verifier Verifier) *Guard {
	return &Guard{verifier: verifier}
}

// Authenticate validates the raw Authorization header value. A header without
// the "Bearer " prefix is passed through unchanged so that verification still
// fails; a bare token is never silently accepted.
func (g *Guard) Authenticate(ctx context.Context, header string) (*Identity, *AuthError) {
	if strings.TrimSpace(header) == "" {
		return nil, &AuthError{Status: http.StatusUnauthorized, Message: "Missing authorization header"}
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	identity, err := g.verifier.Verify(ctx, token)
	if err != nil || identity == nil || identity.UserID == "" {
		return nil, &AuthError{Status: http.StatusUnauthorized, Message: "Invalid or expired token"}
	}
	return identity, nil
}
