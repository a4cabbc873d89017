package departments

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/motora-erp/motora-erp/internal/authz"
	"github.com/motora-erp/motora-erp/internal/platform/httpx"
)

// Store abstracts the repository for tests.
type Store interface {
	List(ctx context.Context, activeOnly bool) ([]Department, error)
	Get(ctx context.Context, id int64) (*Department, error)
	GetByName(ctx context.Context, name string) (*Department, error)
	Create(ctx context.Context, name, description string) (*Department, error)
	Update(ctx context.Context, id int64, updates map[string]any) (*Department, error)
	ListPermissions(ctx context.Context, departmentID int64) ([]authz.DepartmentPermission, error)
	ReplacePermissions(ctx context.Context, departmentID int64, grants []GrantInput) error
}

// Service orchestrates department and grant operations. Evaluation reads
// never mutate store state.
type Service struct {
	store    Store
	cache    *PermissionCache
	collator *collate.Collator
}

// NewService constructs a Service. cache may be nil.
func NewService(store Store, cache *PermissionCache) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		collator: collate.New(language.Spanish),
	}
}

// List returns departments sorted by name under Spanish collation, so
// accented names ("Dirección") order the way administrators expect.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Department, error) {
	departments, err := s.store.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(departments, func(i, j int) bool {
		return s.collator.CompareString(departments[i].Name, departments[j].Name) < 0
	})
	return departments, nil
}

// Get fetches one department.
func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	return s.store.Get(ctx, id)
}

// Create inserts a new active department.
func (s *Service) Create(ctx context.Context, req CreateDepartmentRequest) (*Department, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: department name required", httpx.ErrValidation)
	}
	return s.store.Create(ctx, name, strings.TrimSpace(req.Description))
}

// Update applies partial updates to a department.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDepartmentRequest) (*Department, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: department name required", httpx.ErrValidation)
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.store.Get(ctx, id)
	}
	return s.store.Update(ctx, id, updates)
}

// Permissions returns the raw grant rows for a department.
func (s *Service) Permissions(ctx context.Context, departmentID int64) ([]authz.DepartmentPermission, error) {
	return s.loadPermissions(ctx, departmentID)
}

// PermissionSet resolves a department's grants into an evaluator snapshot.
func (s *Service) PermissionSet(ctx context.Context, departmentID int64) (authz.PermissionSet, error) {
	perms, err := s.loadPermissions(ctx, departmentID)
	if err != nil {
		return authz.PermissionSet{}, err
	}
	return authz.NewPermissionSet(perms), nil
}

// PermissionSetByName resolves grants for a department by display name.
// Implements authz.PermissionSource. Unknown names map to httpx.ErrNotFound.
func (s *Service) PermissionSetByName(ctx context.Context, name string) (authz.PermissionSet, error) {
	department, err := s.store.GetByName(ctx, name)
	if err != nil {
		return authz.PermissionSet{}, err
	}
	return s.PermissionSet(ctx, department.ID)
}

// ReplaceGrants swaps a department's grant set and invalidates the cache.
func (s *Service) ReplaceGrants(ctx context.Context, departmentID int64, grants []GrantInput) error {
	for _, grant := range grants {
		if err := validateGrant(grant); err != nil {
			return err
		}
	}
	if _, err := s.store.Get(ctx, departmentID); err != nil {
		return err
	}
	if err := s.store.ReplacePermissions(ctx, departmentID, grants); err != nil {
		return err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("%w: bump permission cache: %v", httpx.ErrStore, err)
	}
	return nil
}

func (s *Service) loadPermissions(ctx context.Context, departmentID int64) ([]authz.DepartmentPermission, error) {
	return s.cache.Fetch(ctx, departmentID, func(ctx context.Context) ([]authz.DepartmentPermission, error) {
		return s.store.ListPermissions(ctx, departmentID)
	})
}

func validateGrant(grant GrantInput) error {
	if grant.PermissionType == authz.PermTypeRouteAccess {
		if !strings.HasPrefix(grant.PermissionValue, "/") {
			return fmt.Errorf("%w: route grants need a canonical path", httpx.ErrValidation)
		}
		return nil
	}
	for _, action := range authz.Actions() {
		if grant.PermissionType == action {
			if grant.PermissionValue != "true" && grant.PermissionValue != "false" {
				return fmt.Errorf("%w: action %s value must be \"true\" or \"false\"", httpx.ErrValidation, action)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: unknown permission type %q", httpx.ErrValidation, grant.PermissionType)
}
