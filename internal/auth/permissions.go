package auth

import "woodshop/internal/models"

// Capability is a named permission granted per role.
type Capability string

const (
	CapManageOrders     Capability = "manage_orders"
	CapManageMaterials  Capability = "manage_materials"
	CapManageCarpenters Capability = "manage_carpenters"
	CapViewOrders       Capability = "view_orders"
	CapEditOrders       Capability = "edit_orders"
	CapDeleteOrders     Capability = "delete_orders"
	CapAssignCarpenter  Capability = "assign_carpenter"
	CapViewHistory      Capability = "view_history"
)

// AllCapabilities lists every capability in table order.
var AllCapabilities = []Capability{
	CapManageOrders,
	CapManageMaterials,
	CapManageCarpenters,
	CapViewOrders,
	CapEditOrders,
	CapDeleteOrders,
	CapAssignCarpenter,
	CapViewHistory,
}

var roleCapabilities = map[models.Role]map[Capability]bool{
	models.RoleAdministrator: {
		CapManageOrders:     true,
		CapManageMaterials:  true,
		CapManageCarpenters: true,
		CapViewOrders:       true,
		CapEditOrders:       true,
		CapDeleteOrders:     true,
		CapAssignCarpenter:  true,
		CapViewHistory:      true,
	},
	models.RoleCarpenter: {
		CapViewOrders:      true,
		CapEditOrders:      true,
		CapAssignCarpenter: true,
		CapViewHistory:     true,
	},
	models.RoleVisitor: {
		CapViewOrders: true,
	},
}

// Authorize reports whether role grants capability. Unknown roles are
// treated as visitors.
func Authorize(role models.Role, capability Capability) bool {
	caps, ok := roleCapabilities[role]
	if !ok {
		caps = roleCapabilities[models.RoleVisitor]
	}
	return caps[capability]
}

// Permissions renders the capability set of role as can_<capability> flags.
func Permissions(role models.Role) map[string]bool {
	out := make(map[string]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out["can_"+string(c)] = Authorize(role, c)
	}
	return out
}
