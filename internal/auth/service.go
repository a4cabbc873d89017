package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/motora-erp/motora-erp/internal/platform/httpx"
	"github.com/motora-erp/motora-erp/internal/profiles"
	"github.com/motora-erp/motora-erp/internal/shared"
)

// ProfileFinder looks up login candidates.
type ProfileFinder interface {
	FindByEmail(ctx context.Context, email string) (*profiles.Profile, error)
}

// Service wraps authentication business rules.
type Service struct {
	finder ProfileFinder
}

// NewService constructs a new Service.
func NewService(finder ProfileFinder) *Service {
	return &Service{finder: finder}
}

// Authenticate validates email/password credentials. Lookup misses and bad
// passwords collapse into ErrInvalidCredentials; store failures propagate so
// outages are not logged as failed logins.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*profiles.Profile, error) {
	profile, err := s.finder.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if profile.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return profile, nil
}
