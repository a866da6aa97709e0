package console_test

import (
	"testing"

	console "github.com/guardpost/go-console"
	"github.com/stretchr/testify/assert"
)

func TestRoleIsValid(t *testing.T) {
	t.Parallel()

	for _, role := range console.AllRoles() {
		assert.True(t, role.IsValid(), "role %s should be valid", role)
	}

	assert.False(t, console.Role("superuser").IsValid())
	assert.False(t, console.Role("").IsValid())
}

func TestRolePermissions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role         console.Role
		approveLeave bool
		manageUsers  bool
		manageSystem bool
	}{
		{console.RoleStaff, false, false, false},
		{console.RoleJuniorManager, true, false, false},
		{console.RoleSeniorManager, true, true, false},
		{console.RoleSystemAdmin, true, true, true},
	}

	for _, tc := range tests {
		assert.True(t, tc.role.CanViewDashboards(), "%s", tc.role)
		assert.Equal(t, tc.approveLeave, tc.role.CanApproveLeave(), "%s approve leave", tc.role)
		assert.Equal(t, tc.manageUsers, tc.role.CanManageUsers(), "%s manage users", tc.role)
		assert.Equal(t, tc.manageSystem, tc.role.CanManageSystem(), "%s manage system", tc.role)
	}
}

func TestRoleHierarchy(t *testing.T) {
	t.Parallel()

	assert.True(t, console.RoleSystemAdmin.IsAtLeast(console.RoleStaff))
	assert.True(t, console.RoleSeniorManager.IsAtLeast(console.RoleJuniorManager))
	assert.True(t, console.RoleStaff.IsAtLeast(console.RoleStaff))
	assert.False(t, console.RoleStaff.IsAtLeast(console.RoleJuniorManager))
	assert.False(t, console.Role("unknown").IsAtLeast(console.RoleStaff))
}

func TestRoleLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "System Administrator", console.RoleSystemAdmin.Label())
	assert.Equal(t, "Duty Staff", console.RoleStaff.Label())
	assert.Equal(t, "whatever", console.Role("whatever").Label())
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, ok := console.ParseRole("senior_manager")
	assert.True(t, ok)
	assert.Equal(t, console.RoleSeniorManager, role)

	_, ok = console.ParseRole("intern")
	assert.False(t, ok)
}
