package console

// Role is a guard console role. The set is closed; anything outside it is
// rejected at validation time.
type Role string

const (
	// RoleSystemAdmin administers the whole console
	RoleSystemAdmin Role = "system_admin"
	// RoleSeniorManager manages accounts and approves schedules
	RoleSeniorManager Role = "senior_manager"
	// RoleJuniorManager runs day-to-day duty operations
	RoleJuniorManager Role = "junior_manager"
	// RoleStaff is duty personnel
	RoleStaff Role = "staff"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleSystemAdmin, RoleSeniorManager, RoleJuniorManager, RoleStaff:
		return true
	default:
		return false
	}
}

// Label returns the display name used next to the signed-in user.
func (r Role) Label() string {
	switch r {
	case RoleSystemAdmin:
		return "System Administrator"
	case RoleSeniorManager:
		return "Senior Manager"
	case RoleJuniorManager:
		return "Junior Manager"
	case RoleStaff:
		return "Duty Staff"
	default:
		return string(r)
	}
}

// CanViewDashboards checks if this role can open the console dashboards
func (r Role) CanViewDashboards() bool {
	return r.IsValid()
}

// CanApproveLeave checks if this role can approve leave requests
func (r Role) CanApproveLeave() bool {
	switch r {
	case RoleJuniorManager, RoleSeniorManager, RoleSystemAdmin:
		return true
	default:
		return false
	}
}

// CanManageUsers checks if this role can create and edit guard accounts
func (r Role) CanManageUsers() bool {
	switch r {
	case RoleSeniorManager, RoleSystemAdmin:
		return true
	default:
		return false
	}
}

// CanManageSystem checks if this role can change system-wide settings
func (r Role) CanManageSystem() bool {
	return r == RoleSystemAdmin
}

// IsAtLeast checks if this role meets the minimum required level
func (r Role) IsAtLeast(minRole Role) bool {
	roleHierarchy := map[Role]int{
		RoleStaff:         0,
		RoleJuniorManager: 1,
		RoleSeniorManager: 2,
		RoleSystemAdmin:   3,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// AllRoles returns all predefined roles in hierarchical order
func AllRoles() []Role {
	return []Role{
		RoleStaff,
		RoleJuniorManager,
		RoleSeniorManager,
		RoleSystemAdmin,
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
