package task

import "github.com/kabilangimba/team-task-management-system/domain/user"

// CanCreate reports whether p may create tasks.
func CanCreate(p user.Principal) bool {
	switch p.Role {
	case user.RoleAdmin, user.RoleManager:
		return true
	case user.RoleMember:
		return false
	default:
		return false
	}
}

// CanAssign checks whether p may make the user assigneeID, holding assigneeRole, a task's
// assignee. The role check comes first: admins are never valid assignees, whoever assigns them.
func CanAssign(p user.Principal, assigneeRole user.Role, assigneeID string) error {
	if !assigneeRole.Assignable() {
		return ErrInvalidAssignee
	}
	switch p.Role {
	case user.RoleManager:
		if assigneeID == p.ID {
			return ErrSelfAssignmentForbidden
		}
		return nil
	case user.RoleAdmin:
		return nil
	case user.RoleMember:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// CanUpdate checks whether p may apply patch to t.
func CanUpdate(p user.Principal, t *Task, patch Patch) error {
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleManager:
		if t.CreatedBy != p.ID {
			return ErrNotTaskOwner
		}
		if id, ok := patch.NewAssignee(); ok && id == p.ID {
			return ErrSelfAssignmentForbidden
		}
		return nil
	case user.RoleMember:
		if !t.AssignedTo(p.ID) {
			return ErrNotAssignedTask
		}
		for _, f := range patch.Fields {
			if f != FieldStatus {
				return ErrForbiddenFieldUpdate
			}
		}
		return nil
	default:
		return ErrForbidden
	}
}

// CanDelete checks whether p may delete t.
func CanDelete(p user.Principal, t *Task) error {
	switch p.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleManager:
		if t.CreatedBy != p.ID {
			return ErrNotTaskOwner
		}
		return nil
	case user.RoleMember:
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
