package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/profiles"
	"github.com/motora-erp/motora-erp/internal/shared"
	_ "github.com/motora-erp/motora-erp/testing"
)

type stubFinder struct {
	profile *profiles.Profile
	err     error
}

func (s *stubFinder) FindByEmail(ctx context.Context, email string) (*profiles.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func hashedPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthenticateSuccess(t *testing.T) {
	finder := &stubFinder{profile: &profiles.Profile{
		UserID:       "user-1",
		Email:        "ana@motora.local",
		PasswordHash: hashedPassword(t, "correcthorse"),
		Department:   "Ventas",
	}}
	service := NewService(finder)

	profile, err := service.Authenticate(context.Background(), "ana@motora.local", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	finder := &stubFinder{profile: &profiles.Profile{
		UserID:       "user-1",
		PasswordHash: hashedPassword(t, "correcthorse"),
	}}
	service := NewService(finder)

	_, err := service.Authenticate(context.Background(), "ana@motora.local", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	finder := &stubFinder{err: fmt.Errorf("%w: profiles find_by_email", httpx.ErrNotFound)}
	service := NewService(finder)

	_, err := service.Authenticate(context.Background(), "nadie@motora.local", "whatever")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateStoreFailureIsNotADenial(t *testing.T) {
	finder := &stubFinder{err: fmt.Errorf("%w: profiles find_by_email: connection refused", httpx.ErrStore)}
	service := NewService(finder)

	_, err := service.Authenticate(context.Background(), "ana@motora.local", "correcthorse")
	assert.ErrorIs(t, err, httpx.ErrStore)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateEmptyHashDenies(t *testing.T) {
	finder := &stubFinder{profile: &profiles.Profile{UserID: "user-1"}}
	service := NewService(finder)

	_, err := service.Authenticate(context.Background(), "ana@motora.local", "")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
