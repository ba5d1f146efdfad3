package domain

// PermissionType represents a granular permission
type PermissionType string

const (
	PermissionProjectsRead   PermissionType = "projects:read"
	PermissionProjectsWrite  PermissionType = "projects:write"
	PermissionProjectsDelete PermissionType = "projects:delete"

	PermissionOrdersRead   PermissionType = "orders:read"
	PermissionOrdersWrite  PermissionType = "orders:write"
	PermissionOrdersDelete PermissionType = "orders:delete"

	PermissionNotesRead   PermissionType = "delivery_notes:read"
	PermissionNotesWrite  PermissionType = "delivery_notes:write"
	PermissionNotesDelete PermissionType = "delivery_notes:delete"

	PermissionEquipmentRead   PermissionType = "equipment:read"
	PermissionEquipmentWrite  PermissionType = "equipment:write"
	PermissionEquipmentMatch  PermissionType = "equipment:match"
	PermissionEquipmentVerify PermissionType = "equipment:verify"

	PermissionIncidentsRead    PermissionType = "incidents:read"
	PermissionIncidentsWrite   PermissionType = "incidents:write"
	PermissionIncidentsResolve PermissionType = "incidents:resolve"

	PermissionFilesRead  PermissionType = "files:read"
	PermissionFilesWrite PermissionType = "files:write"

	PermissionUsersRead        PermissionType = "users:read"
	PermissionUsersWrite       PermissionType = "users:write"
	PermissionUsersManageRoles PermissionType = "users:manage_roles"
)

// AllPermissions returns every known permission
func AllPermissions() []PermissionType {
	return []PermissionType{
		PermissionProjectsRead, PermissionProjectsWrite, PermissionProjectsDelete,
		PermissionOrdersRead, PermissionOrdersWrite, PermissionOrdersDelete,
		PermissionNotesRead, PermissionNotesWrite, PermissionNotesDelete,
		PermissionEquipmentRead, PermissionEquipmentWrite,
		PermissionEquipmentMatch, PermissionEquipmentVerify,
		PermissionIncidentsRead, PermissionIncidentsWrite, PermissionIncidentsResolve,
		PermissionFilesRead, PermissionFilesWrite,
		PermissionUsersRead, PermissionUsersWrite, PermissionUsersManageRoles,
	}
}
