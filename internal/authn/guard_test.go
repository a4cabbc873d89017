package authn

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motora-erp/motora-erp/internal/authz"
)

type stubVerifier struct {
	identity *Identity
	err      error
	calls    int
	lastTok  string
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	s.calls++
	s.lastTok = token
	return s.identity, s.err
}

func TestAuthenticateMissingHeader(t *testing.T) {
	for _, header := range []string{"", "   ", "\t"} {
		verifier := &stubVerifier{}
		guard := NewGuard(verifier)

		identity, authErr := guard.Authenticate(context.Background(), header)

		require.NotNil(t, authErr)
		assert.Nil(t, identity)
		assert.Equal(t, http.StatusUnauthorized, authErr.Status)
		assert.Equal(t, "Missing authorization header", authErr.Message)
		assert.Zero(t, verifier.calls, "verifier must not run without a header")
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{
		UserID:   "user-1",
		Email:    "ana@motora.local",
		Metadata: authz.ClaimMetadata{Role: "comercial", Department: "Ventas"},
	}}
	guard := NewGuard(verifier)

	identity, authErr := guard.Authenticate(context.Background(), "Bearer token-123")

	require.Nil(t, authErr)
	require.NotNil(t, identity)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "Ventas", identity.Metadata.Department)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, "token-123", verifier.lastTok)
}

func TestAuthenticateVerifierRejection(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("signature mismatch")}
	guard := NewGuard(verifier)

	identity, authErr := guard.Authenticate(context.Background(), "Bearer bad-token")

	require.NotNil(t, authErr)
	assert.Nil(t, identity)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "Invalid or expired token", authErr.Message)
	assert.Equal(t, 1, verifier.calls)
}

func TestAuthenticateHeaderWithoutBearerPrefix(t *testing.T) {
	// The raw header is handed to the verifier unchanged; a malformed scheme
	// is the verifier's rejection to make, not a silent acceptance.
	verifier := &stubVerifier{err: errors.New("not a jwt")}
	guard := NewGuard(verifier)

	_, authErr := guard.Authenticate(context.Background(), "Basic dXNlcjpwYXNz")

	require.NotNil(t, authErr)
	assert.Equal(t, "Invalid or expired token", authErr.Message)
	assert.Equal(t, "Basic dXNlcjpwYXNz", verifier.lastTok)
}

func TestAuthenticateEmptySubjectRejected(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{UserID: ""}}
	guard := NewGuard(verifier)

	identity, authErr := guard.Authenticate(context.Background(), "Bearer token")

	require.NotNil(t, authErr)
	assert.Nil(t, identity)
	assert.Equal(t, "Invalid or expired token", authErr.Message)
}
