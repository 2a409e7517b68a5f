package security

import (
	"fmt"
	"sort"
	"sync"
)

// Permission is a named capability, formatted as "category:action".
type Permission string

// Permission catalog, grouped by category.
const (
	// Query execution
	PermQueryExecute Permission = "query:execute"
	PermQueryPreview Permission = "query:preview"
	PermQueryExplain Permission = "query:explain"

	// Schema inspection
	PermSchemaRead Permission = "schema:read"
	PermSchemaList Permission = "schema:list"

	// Data access
	PermDataRead   Permission = "data:read"
	PermDataExport Permission = "data:export"

	// Administration
	PermAdminAudit  Permission = "admin:audit"
	PermAdminConfig Permission = "admin:config"
	PermAdminUsers  Permission = "admin:users"
)

// AllPermissions returns the full permission catalog as a set.
func AllPermissions() map[Permission]struct{} {
	all := []Permission{
		PermQueryExecute, PermQueryPreview, PermQueryExplain,
		PermSchemaRead, PermSchemaList,
		PermDataRead, PermDataExport,
		PermAdminAudit, PermAdminConfig, PermAdminUsers,
	}
	set := make(map[Permission]struct{}, len(all))
	for _, p := range all {
		set[p] = struct{}{}
	}
	return set
}

// Role is a named permission set. The catalog is fixed: roles are built in,
// not created dynamically.
type Role struct {
	Name        string
	Permissions map[Permission]struct{}
	Description string
}

// Has reports whether the role grants a permission.
func (r Role) Has(p Permission) bool {
	_, ok := r.Permissions[p]
	return ok
}

func permissionSet(perms ...Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Built-in roles, in increasing order of capability.
var (
	ReadOnlyRole = Role{
		Name: "readonly",
		Permissions: permissionSet(
			PermQueryPreview,
			PermSchemaRead,
			PermSchemaList,
			PermDataRead,
		),
		Description: "Schema inspection and data preview only",
	}

	AnalystRole = Role{
		Name: "analyst",
		Permissions: permissionSet(
			PermQueryExecute,
			PermQueryPreview,
			PermQueryExplain,
			PermSchemaRead,
			PermSchemaList,
			PermDataRead,
			PermDataExport,
		),
		Description: "Full read-only query access with export",
	}

	AdminRole = Role{
		Name:        "admin",
		Permissions: AllPermissions(),
		Description: "All permissions, including administration",
	}
)

// DefaultRoles is the built-in role catalog, keyed by role name.
var DefaultRoles = map[string]Role{
	ReadOnlyRole.Name: ReadOnlyRole,
	AnalystRole.Name:  AnalystRole,
	AdminRole.Name:    AdminRole,
}

// DefaultRoleName is the role granted to unassigned and anonymous users
// unless configured otherwise.
const DefaultRoleName = "readonly"

// PermissionDeniedError is raised by RequirePermission when enforcement is
// active and the check fails.
type PermissionDeniedError struct {
	User      string
	Operation Permission
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for operation: %s", e.Operation)
}

// RoleInfo is the projection of one role for listing.
type RoleInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// PermissionChecker maps user identities to granted operations via role
// assignment. Enforcement is off by default: every check passes until the
// deployment opts in. Safe for concurrent use.
type PermissionChecker struct {
	mu          sync.Mutex
	enforce     bool
	defaultRole string
	userRoles   map[string][]string
}

// NewPermissionChecker builds a checker. defaultRole applies to unassigned
// and anonymous users; empty means DefaultRoleName.
func NewPermissionChecker(defaultRole string, enforce bool) *PermissionChecker {
	if defaultRole == "" {
		defaultRole = DefaultRoleName
	}
	return &PermissionChecker{
		enforce:     enforce,
		defaultRole: defaultRole,
		userRoles:   make(map[string][]string),
	}
}

// Enforcing reports whether permission checks are active.
func (pc *PermissionChecker) Enforcing() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.enforce
}

// SetEnforce toggles enforcement.
func (pc *PermissionChecker) SetEnforce(enforce bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.enforce = enforce
}

// GetPermissions returns the union of the permission sets of every role
// assigned to the user. Unassigned and anonymous (empty) users get the
// default role's permissions.
func (pc *PermissionChecker) GetPermissions(user string) map[Permission]struct{} {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.permissionsLocked(user)
}

func (pc *PermissionChecker) permissionsLocked(user string) map[Permission]struct{} {
	names := pc.userRoles[user]
	if user == "" || len(names) == 0 {
		names = []string{pc.defaultRole}
	}
	perms := make(map[Permission]struct{})
	for _, name := range names {
		role, ok := DefaultRoles[name]
		if !ok {
			continue
		}
		for p := range role.Permissions {
			perms[p] = struct{}{}
		}
	}
	return perms
}

// HasPermission reports whether the user may perform the operation. Always
// true when enforcement is disabled, including for undefined operations.
func (pc *PermissionChecker) HasPermission(user string, operation Permission) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if !pc.enforce {
		return true
	}
	_, ok := pc.permissionsLocked(user)[operation]
	return ok
}

// RequirePermission returns a typed PermissionDeniedError when enforcement
// is active and the user lacks the operation.
func (pc *PermissionChecker) RequirePermission(user string, operation Permission) error {
	if !pc.HasPermission(user, operation) {
		return &PermissionDeniedError{User: user, Operation: operation}
	}
	return nil
}

// AssignRole adds a role to the user. Assigning an unknown role name is a
// no-op that reports failure rather than raising.
func (pc *PermissionChecker) AssignRole(user, role string) bool {
	if _, ok := DefaultRoles[role]; !ok {
		return false
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for _, existing := range pc.userRoles[user] {
		if existing == role {
			return true
		}
	}
	pc.userRoles[user] = append(pc.userRoles[user], role)
	return true
}

// RemoveRole removes a role from the user, reporting whether anything was
// removed.
func (pc *PermissionChecker) RemoveRole(user, role string) bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	roles, ok := pc.userRoles[user]
	if !ok {
		return false
	}
	for i, existing := range roles {
		if existing == role {
			pc.userRoles[user] = append(roles[:i], roles[i+1:]...)
			if len(pc.userRoles[user]) == 0 {
				delete(pc.userRoles, user)
			}
			return true
		}
	}
	return false
}

// ListRoles projects the built-in role catalog, sorted by name, with each
// role's permissions sorted.
func (pc *PermissionChecker) ListRoles() []RoleInfo {
	infos := make([]RoleInfo, 0, len(DefaultRoles))
	for _, role := range DefaultRoles {
		perms := make([]string, 0, len(role.Permissions))
		for p := range role.Permissions {
			perms = append(perms, string(p))
		}
		sort.Strings(perms)
		infos = append(infos, RoleInfo{
			Name:        role.Name,
			Description: role.Description,
			Permissions: perms,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
