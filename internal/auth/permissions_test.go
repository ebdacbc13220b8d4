package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"woodshop/internal/models"
)

func TestAuthorize_MatchesTable(t *testing.T) {
	want := map[Capability][3]bool{
		// administrator, carpenter, visitor
		CapManageOrders:     {true, false, false},
		CapManageMaterials:  {true, false, false},
		CapManageCarpenters: {true, false, false},
		CapViewOrders:       {true, true, true},
		CapEditOrders:       {true, true, false},
		CapDeleteOrders:     {true, false, false},
		CapAssignCarpenter:  {true, true, false},
		CapViewHistory:      {true, true, false},
	}
	roles := []models.Role{models.RoleAdministrator, models.RoleCarpenter, models.RoleVisitor}

	assert.Len(t, want, len(AllCapabilities))
	for capability, row := range want {
		for i, role := range roles {
			assert.Equal(t, row[i], Authorize(role, capability), "Authorize(%s, %s)", role, capability)
		}
	}
}

func TestAuthorize_UnknownRoleIsVisitor(t *testing.T) {
	for _, c := range AllCapabilities {
		assert.Equal(t, Authorize(models.RoleVisitor, c), Authorize(models.Role("superuser"), c), "capability %s", c)
	}
}

func TestPermissions(t *testing.T) {
	perms := Permissions(models.RoleCarpenter)

	assert.Len(t, perms, len(AllCapabilities))
	assert.True(t, perms["can_edit_orders"])
	assert.True(t, perms["can_view_history"])
	assert.False(t, perms["can_delete_orders"])
	assert.False(t, perms["can_manage_materials"])
}
