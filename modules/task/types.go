package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
)

// Failure carries a policy error across the request-reply boundary.
// Storage and transport failures are returned as service errors and never populate it.
type Failure struct {
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Err rebuilds the typed policy error, or returns nil when the call succeeded.
func (f Failure) Err() error {
	if f.ErrorCode == "" {
		return nil
	}
	if err := domain.FromWire(f.ErrorCode, f.ErrorMessage); err != nil {
		return err
	}
	return fmt.Errorf("unrecognised error code %q: %s", f.ErrorCode, f.ErrorMessage)
}

// failure converts err into an in-band failure, or reports false for non-policy errors.
func failure(err error) (Failure, bool) {
	code, ok := domain.Code(err)
	if !ok {
		return Failure{}, false
	}
	return Failure{ErrorCode: code, ErrorMessage: err.Error()}, true
}

// TaskResponse is the wire view of a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	Assignee    *string    `json:"assignee"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Deadline:    t.Deadline,
		Assignee:    t.AssigneeID,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ListTasksRequest lists the tasks visible to Principal.
type ListTasksRequest struct {
	Principal user.Principal `json:"principal"`
	Status    *string        `json:"status,omitempty"`
	Assignee  *string        `json:"assignee,omitempty"`
}

// ListTasksResponse is the response for list-tasks.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
	Failure
}

// GetTaskRequest retrieves one task.
type GetTaskRequest struct {
	Principal user.Principal `json:"principal"`
	TaskID    string         `json:"task_id"`
}

// TaskResult is the response for operations returning a single task.
type TaskResult struct {
	Task *TaskResponse `json:"task,omitempty"`
	Failure
}

// CreateTaskRequest creates a task.
type CreateTaskRequest struct {
	Principal   user.Principal `json:"principal"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      *string        `json:"status,omitempty"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Assignee    *string        `json:"assignee,omitempty"`
}

// UpdateTaskRequest applies a partial update. Patch is the caller's JSON object as sent, so
// the task module sees exactly which keys were present.
type UpdateTaskRequest struct {
	Principal user.Principal  `json:"principal"`
	TaskID    string          `json:"task_id"`
	Patch     json.RawMessage `json:"patch"`
}

// DeleteTaskRequest deletes a task.
type DeleteTaskRequest struct {
	Principal user.Principal `json:"principal"`
	TaskID    string         `json:"task_id"`
}

// DeleteTaskResponse is the response for delete-task.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
	Failure
}

// TaskStatsRequest asks for the statistics of Principal's scope.
type TaskStatsRequest struct {
	Principal user.Principal `json:"principal"`
}

// TaskStatsResponse is the response for task-stats.
type TaskStatsResponse struct {
	Stats domain.Stats `json:"stats"`
	Failure
}

// TaskPort is the contract driving adapters such as the HTTP API use to reach the task
// module. Policy failures come back as domain/task sentinel errors.
type TaskPort interface {
	ListTasks(ctx context.Context, req ListTasksRequest) ([]TaskResponse, error)
	GetTask(ctx context.Context, p user.Principal, taskID string) (*TaskResponse, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskResponse, error)
	DeleteTask(ctx context.Context, p user.Principal, taskID string) error
	TaskStats(ctx context.Context, p user.Principal) (domain.Stats, error)
}
