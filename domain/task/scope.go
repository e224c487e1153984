package task

import "github.com/kabilangimba/team-task-management-system/domain/user"

// Relation names the link between a user and a task.
type Relation string

const (
	RelationCreator  Relation = "created_by"
	RelationAssignee Relation = "assignee"
)

// Ownership is a single "user stands in relation to task" predicate.
type Ownership struct {
	Relation Relation
	UserID   string
}

// Matches reports whether t satisfies the predicate.
func (o Ownership) Matches(t *Task) bool {
	switch o.Relation {
	case RelationCreator:
		return t.CreatedBy == o.UserID
	case RelationAssignee:
		return t.AssignedTo(o.UserID)
	default:
		return false
	}
}

// Filter selects tasks. A task matches when it satisfies at least one AnyOf predicate (or
// AnyOf is nil) and every non-nil optional field.
type Filter struct {
	AnyOf    []Ownership
	Status   *Status
	Assignee *string

	// none marks a filter that matches nothing.
	none bool
}

// Unrestricted reports whether the filter admits every task.
func (f Filter) Unrestricted() bool {
	return !f.none && f.AnyOf == nil && f.Status == nil && f.Assignee == nil
}

// Empty reports whether the filter can match no task at all.
func (f Filter) Empty() bool {
	return f.none
}

// Matches evaluates the filter against t in memory.
func (f Filter) Matches(t *Task) bool {
	if f.none {
		return false
	}
	if f.AnyOf != nil {
		ok := false
		for _, o := range f.AnyOf {
			if o.Matches(t) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Assignee != nil && !t.AssignedTo(*f.Assignee) {
		return false
	}
	return true
}

// Scope returns the set of tasks p may see, determined solely by role and ownership.
func Scope(p user.Principal) Filter {
	switch p.Role {
	case user.RoleAdmin:
		return Filter{}
	case user.RoleManager:
		return Filter{AnyOf: []Ownership{
			{Relation: RelationCreator, UserID: p.ID},
			{Relation: RelationAssignee, UserID: p.ID},
		}}
	case user.RoleMember:
		return Filter{AnyOf: []Ownership{
			{Relation: RelationAssignee, UserID: p.ID},
		}}
	default:
		return Filter{none: true}
	}
}

// ScopeWith narrows p's role scope by the optional caller-supplied filters. It never widens
// visibility: a member asking for another user's tasks gets an empty result.
func ScopeWith(p user.Principal, status *Status, assignee *string) Filter {
	f := Scope(p)
	f.Status = status
	f.Assignee = assignee
	return f
}

// DeletionScope is the lookup scope for deletes. Roles that may delete at all resolve any
// existing task, so that a manager deleting someone else's task learns NotTaskOwner rather
// than NotFound. Members keep their role scope.
func DeletionScope(p user.Principal) Filter {
	switch p.Role {
	case user.RoleAdmin, user.RoleManager:
		return Filter{}
	case user.RoleMember:
		return Scope(p)
	default:
		return Filter{none: true}
	}
}

// CanView reports whether t lies inside p's role scope.
func CanView(p user.Principal, t *Task) bool {
	return Scope(p).Matches(t)
}
