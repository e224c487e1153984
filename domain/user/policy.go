package user

// CanManageUsers reports whether p may create users with an arbitrary role.
func CanManageUsers(p Principal) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleManager, RoleMember:
		return false
	default:
		return false
	}
}

// CanListUsers reports whether p may browse the user directory, e.g. to pick an assignee.
func CanListUsers(p Principal) bool {
	switch p.Role {
	case RoleAdmin, RoleManager:
		return true
	case RoleMember:
		return false
	default:
		return false
	}
}

// Assignable reports whether a user holding r may be assigned tasks.
func (r Role) Assignable() bool {
	switch r {
	case RoleManager, RoleMember:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

// CanViewUser reports whether p may read the profile of the user with targetID. Everyone may
// read their own; admins and managers may read any, as they can list the directory.
func CanViewUser(p Principal, targetID string) bool {
	switch p.Role {
	case RoleAdmin, RoleManager:
		return true
	case RoleMember:
		return p.ID == targetID
	default:
		return false
	}
}

// CanEditUser reports whether p may change or delete the account with targetID: admins may
// edit any account, everyone else only their own. Changing a role also needs CanManageUsers.
func CanEditUser(p Principal, targetID string) bool {
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleManager, RoleMember:
		return p.ID == targetID
	default:
		return false
	}
}
