package user

type Permission string

const (
	// Leave Management
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveManage  Permission = "leave.manage"

	// Employee Management
	PermissionEmployeeViewAll Permission = "employee.view_all"
	PermissionEmployeeManage  Permission = "employee.manage"

	// Leave year & balance administration
	PermissionLeaveYearManage Permission = "leave_year.manage"
	PermissionBalanceManage   Permission = "balance.manage"
	PermissionSettingsManage  Permission = "settings.manage"
	PermissionDataTransfer    Permission = "data.transfer"
)

// RolePermissions maps each role to its permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionLeaveViewOwn,
		PermissionLeaveViewAll,
		PermissionLeaveManage,
		PermissionEmployeeViewAll,
		PermissionEmployeeManage,
		PermissionLeaveYearManage,
		PermissionBalanceManage,
		PermissionSettingsManage,
		PermissionDataTransfer,
	},
	RoleUser: {
		PermissionLeaveViewOwn,
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
