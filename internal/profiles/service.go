package profiles

import (
	"context"
	"errors"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
)

// Store abstracts the repository for service consumers and tests.
type Store interface {
	FindByUserID(ctx context.Context, userID string) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	Upsert(ctx context.Context, p Profile) error
}

// Service wraps profile lookups with the semantics the authorization paths
// need: a missing row is nil, a store failure is an error.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the profile or nil when none exists. Store failures propagate.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ProfileByUserID implements authz.ProfileSource. A missing profile resolves
// to nil, which the resolver treats as "claims only".
func (s *Service) ProfileByUserID(ctx context.Context, userID string) (*authz.Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.Authz(), nil
}

// Upsert persists administered fields.
func (s *Service) Upsert(ctx context.Context, p Profile) error {
	return s.store.Upsert(ctx, p)
}
