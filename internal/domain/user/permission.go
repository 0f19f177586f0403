package user

type Permission string

const (
	PermissionAttendanceRecord  Permission = "attendance.record"
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionReportsView       Permission = "reports.view"
	PermissionReportsExport     Permission = "reports.export"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionAttendanceRecord,
		PermissionAttendanceViewOwn,
		PermissionReportsView,
		PermissionReportsExport,
	},
	RoleManager: {
		PermissionAttendanceRecord,
		PermissionAttendanceViewOwn,
		PermissionReportsView,
		PermissionReportsExport,
	},
	RoleUser: {
		// Own KPI only; scope is forced by the KPI service
		PermissionAttendanceRecord,
		PermissionAttendanceViewOwn,
		PermissionReportsView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
