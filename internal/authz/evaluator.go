package authz

import "sort"

// PermissionSet is a normalized, read-only snapshot of a department's grants.
// The zero value represents "not yet resolved": every capability is denied.
type PermissionSet struct {
	routes  map[string]struct{}
	actions map[string]struct{}
}

// NewPermissionSet normalizes permission rows into a PermissionSet.
// Route rows contribute their literal path. Action rows contribute their type
// only when the stored value is exactly "true"; a typo in the stored value
// must deny, never silently grant.
func NewPermissionSet(rows []DepartmentPermission) PermissionSet {
	set := PermissionSet{
		routes:  make(map[string]struct{}, len(rows)),
		actions: make(map[string]struct{}, len(rows)),
	}
	for _, row := range rows {
		switch {
		case row.PermissionType == PermTypeRouteAccess:
			if row.PermissionValue != "" {
				set.routes[row.PermissionValue] = struct{}{}
			}
		case row.PermissionValue == GrantedValue:
			set.actions[row.PermissionType] = struct{}{}
		}
	}
	return set
}

// HasRoute reports whether the set grants the exact route path. No prefix or
// glob matching: route strings are canonical paths.
func (s PermissionSet) HasRoute(route string) bool {
	_, ok := s.routes[route]
	return ok
}

// Can reports whether the set grants the named action.
func (s PermissionSet) Can(action string) bool {
	_, ok := s.actions[action]
	return ok
}

// GrantedRoutes returns the granted route paths, sorted.
func (s PermissionSet) GrantedRoutes() []string {
	return sortedKeys(s.routes)
}

// GrantedActions returns the granted action names, sorted.
func (s PermissionSet) GrantedActions() []string {
	return sortedKeys(s.actions)
}

// Capability is a requested access right: a route or an action.
type Capability interface {
	grantedBy(set PermissionSet) bool
}

// RouteCapability requests access to a route path.
type RouteCapability struct {
	Route string
}

func (c RouteCapability) grantedBy(set PermissionSet) bool {
	return set.HasRoute(c.Route)
}

// ActionCapability requests permission to perform an action.
type ActionCapability struct {
	Action string
}

func (c ActionCapability) grantedBy(set PermissionSet) bool {
	return set.Can(c.Action)
}

// Evaluate reports whether the capability is granted by the permission set.
// Denied is an expected outcome, not an error.
func Evaluate(set PermissionSet, capability Capability) bool {
	if capability == nil {
		return false
	}
	return capability.grantedBy(set)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
