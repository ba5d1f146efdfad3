package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID       uuid.UUID
	DisplayName  string
	Email        string
	Roles        []domain.UserRoleType
	DatacenterID domain.DatacenterID
	// AccessToken holds the raw bearer token for On-Behalf-Of calls to MS Graph
	AccessToken string
}

type contextKey string

const userContextKey contextKey = "userContext"
const datacenterFilterKey contextKey = "datacenterFilter"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin (has access to all datacenters)
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// IsSiteLead checks if user leads receiving at their datacenter
func (u *UserContext) IsSiteLead() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleSiteLead)
}

// IsGlobalUser checks if user can see data across all datacenters. Users
// assigned to the "all" pseudo-datacenter behave like admins for reads.
func (u *UserContext) IsGlobalUser() bool {
	return u.DatacenterID == domain.DatacenterAll || u.IsAdmin()
}

// CanAccessDatacenter checks if user can access data for a specific datacenter
func (u *UserContext) CanAccessDatacenter(datacenterID domain.DatacenterID) bool {
	// Admins and global users can access all datacenters
	if u.IsAdmin() || u.IsGlobalUser() {
		return true
	}
	// Otherwise, user can only access their own datacenter
	return u.DatacenterID == datacenterID
}

// GetDatacenterFilter returns the datacenter ID to filter queries by
// Returns nil for admins and global users (no filtering needed)
func (u *UserContext) GetDatacenterFilter() *domain.DatacenterID {
	if u.IsAdmin() || u.IsGlobalUser() {
		return nil
	}
	return &u.DatacenterID
}

// HasPermission checks if user has a specific permission based on their roles
func (u *UserContext) HasPermission(permission domain.PermissionType) bool {
	// Admins have all permissions
	if u.IsAdmin() {
		return true
	}

	// Check each role's default permissions
	for _, role := range u.Roles {
		if hasRolePermission(role, permission) {
			return true
		}
	}
	return false
}

// hasRolePermission checks if a role has a specific permission by default
func hasRolePermission(role domain.UserRoleType, permission domain.PermissionType) bool {
	// Define default permissions per role
	rolePermissions := map[domain.UserRoleType][]domain.PermissionType{
		domain.RoleAdmin: {
			// Admin has all permissions - handled above
		},
		domain.RoleSiteLead: {
			domain.PermissionProjectsRead, domain.PermissionProjectsWrite, domain.PermissionProjectsDelete,
			domain.PermissionOrdersRead, domain.PermissionOrdersWrite, domain.PermissionOrdersDelete,
			domain.PermissionNotesRead, domain.PermissionNotesWrite, domain.PermissionNotesDelete,
			domain.PermissionEquipmentRead, domain.PermissionEquipmentWrite,
			domain.PermissionEquipmentMatch, domain.PermissionEquipmentVerify,
			domain.PermissionIncidentsRead, domain.PermissionIncidentsWrite, domain.PermissionIncidentsResolve,
			domain.PermissionFilesRead, domain.PermissionFilesWrite,
			domain.PermissionUsersRead,
		},
		domain.RoleTechnician: {
			domain.PermissionProjectsRead,
			domain.PermissionOrdersRead,
			domain.PermissionNotesRead, domain.PermissionNotesWrite,
			domain.PermissionEquipmentRead, domain.PermissionEquipmentWrite,
			domain.PermissionEquipmentMatch, domain.PermissionEquipmentVerify,
			domain.PermissionIncidentsRead, domain.PermissionIncidentsWrite,
			domain.PermissionFilesRead, domain.PermissionFilesWrite,
		},
		domain.RoleViewer: {
			domain.PermissionProjectsRead,
			domain.PermissionOrdersRead,
			domain.PermissionNotesRead,
			domain.PermissionEquipmentRead,
			domain.PermissionIncidentsRead,
			domain.PermissionFilesRead,
		},
		domain.RoleAPIService: {
			domain.PermissionProjectsRead, domain.PermissionProjectsWrite,
			domain.PermissionOrdersRead, domain.PermissionOrdersWrite,
			domain.PermissionNotesRead, domain.PermissionNotesWrite,
			domain.PermissionEquipmentRead, domain.PermissionEquipmentWrite,
			domain.PermissionEquipmentMatch,
			domain.PermissionIncidentsRead, domain.PermissionIncidentsWrite,
			domain.PermissionFilesRead, domain.PermissionFilesWrite,
		},
	}

	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDisplayNameInitials returns initials from the display name (e.g., "John Doe" -> "JD")
func (u *UserContext) GetDisplayNameInitials() string {
	if u.DisplayName == "" {
		return ""
	}
	parts := strings.Fields(u.DisplayName)
	initials := ""
	for _, part := range parts {
		if len(part) > 0 {
			initials += strings.ToUpper(string(part[0]))
		}
	}
	return initials
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}

// DatacenterFilter represents the effective datacenter filter for queries
// This is set by middleware based on user context and query parameters
type DatacenterFilter struct {
	// DatacenterID is the datacenter to filter by (nil means no filter / all datacenters)
	DatacenterID *domain.DatacenterID
	// RequestedByGlobalUser indicates if a global user explicitly requested a specific datacenter
	RequestedByGlobalUser bool
}

// WithDatacenterFilter adds datacenter filter to the context
func WithDatacenterFilter(ctx context.Context, filter *DatacenterFilter) context.Context {
	return context.WithValue(ctx, datacenterFilterKey, filter)
}

// DatacenterFilterFromContext extracts datacenter filter from the context
func DatacenterFilterFromContext(ctx context.Context) (*DatacenterFilter, bool) {
	filter, ok := ctx.Value(datacenterFilterKey).(*DatacenterFilter)
	return filter, ok
}

// GetEffectiveDatacenterFilter returns the datacenter ID to filter queries by
// This should be used by repositories to apply per-site filtering
// Returns nil if no filtering should be applied (user has access to all datacenters)
func GetEffectiveDatacenterFilter(ctx context.Context) *domain.DatacenterID {
	// First check if there's an explicit datacenter filter set by middleware
	if filter, ok := DatacenterFilterFromContext(ctx); ok && filter != nil {
		return filter.DatacenterID
	}

	// Fall back to user's default datacenter filter
	if userCtx, ok := FromContext(ctx); ok {
		return userCtx.GetDatacenterFilter()
	}

	return nil
}
