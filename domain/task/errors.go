package task

import "errors"

var (
	// ErrForbidden is returned when the principal's role may not perform the operation at all.
	ErrForbidden = errors.New("forbidden")
	// ErrNotTaskOwner is returned when a manager acts on a task another user created.
	ErrNotTaskOwner = errors.New("only the task creator may perform this operation")
	// ErrNotAssignedTask is returned when a member acts on a task not assigned to them.
	ErrNotAssignedTask = errors.New("task is not assigned to you")
	// ErrForbiddenFieldUpdate is returned when a member touches a field other than status.
	ErrForbiddenFieldUpdate = errors.New("members can only update task status")
	// ErrSelfAssignmentForbidden is returned when a manager assigns a task to themselves.
	ErrSelfAssignmentForbidden = errors.New("managers cannot assign tasks to themselves")
	// ErrInvalidAssignee is returned when the assignee is unknown or holds a role that cannot be assigned.
	ErrInvalidAssignee = errors.New("tasks can only be assigned to managers or members")
	// ErrNotFound is returned when a task does not exist or lies outside the principal's scope.
	ErrNotFound = errors.New("task not found")
	// ErrInvalidInput is returned when a payload fails field validation.
	ErrInvalidInput = errors.New("invalid input")
)

// codes maps each policy error to its stable wire code.
var codes = []struct {
	err  error
	code string
}{
	{ErrForbidden, "forbidden"},
	{ErrNotTaskOwner, "not_task_owner"},
	{ErrNotAssignedTask, "not_assigned_task"},
	{ErrForbiddenFieldUpdate, "forbidden_field_update"},
	{ErrSelfAssignmentForbidden, "self_assignment_forbidden"},
	{ErrInvalidAssignee, "invalid_assignee"},
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
}

// Code returns the wire code of a policy error. ok is false for errors that are not policy
// outcomes, such as storage failures.
func Code(err error) (code string, ok bool) {
	if err == nil {
		return "", false
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return "", false
}

// FromCode returns the policy error for a wire code, or nil if the code is unknown.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// FromWire rebuilds a policy error from its wire code and message. The result matches the
// sentinel via errors.Is and reads as message. It returns nil for an unknown code.
func FromWire(code, message string) error {
	base := FromCode(code)
	if base == nil {
		return nil
	}
	if message == "" || message == base.Error() {
		return base
	}
	return &wireError{base: base, message: message}
}

type wireError struct {
	base    error
	message string
}

func (e *wireError) Error() string { return e.message }

func (e *wireError) Unwrap() error { return e.base }
