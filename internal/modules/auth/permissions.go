package auth

import "github.com/georgemunganga/restaurant-pos/internal/modules/user"

// Permission is a static capability string checked per route.
type Permission string

const (
	PermInventoryView   Permission = "inventory.view"
	PermInventoryManage Permission = "inventory.manage"
	PermMenuView        Permission = "menu.view"
	PermMenuManage      Permission = "menu.manage"
	PermOrdersView      Permission = "orders.view"
	PermOrdersCreate    Permission = "orders.create"
	PermOrdersManage    Permission = "orders.manage"
	PermPaymentsManage  Permission = "payments.manage"
	PermReportsView     Permission = "reports.view"
	PermSuppliersManage Permission = "suppliers.manage"
	PermUsersManage     Permission = "users.manage"
)

// AllPermissions lists every permission; admins hold all of them.
var AllPermissions = []Permission{
	PermInventoryView, PermInventoryManage,
	PermMenuView, PermMenuManage,
	PermOrdersView, PermOrdersCreate, PermOrdersManage,
	PermPaymentsManage, PermReportsView,
	PermSuppliersManage, PermUsersManage,
}

var rolePermissions = map[user.Role][]Permission{
	user.RoleAdmin: AllPermissions,
	user.RoleManager: {
		PermInventoryView, PermInventoryManage,
		PermMenuView, PermMenuManage,
		PermOrdersView, PermOrdersCreate, PermOrdersManage,
		PermPaymentsManage, PermReportsView, PermSuppliersManage,
	},
	user.RoleCashier: {
		PermMenuView,
		PermOrdersView, PermOrdersCreate,
		PermPaymentsManage,
	},
	user.RoleKitchen: {
		PermInventoryView, PermMenuView,
		PermOrdersView, PermOrdersManage,
	},
}

// PermissionsFor returns the permissions granted to role.
func PermissionsFor(role user.Role) []Permission {
	return rolePermissions[role]
}

// Allowed reports whether role holds perm.
func Allowed(role user.Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
