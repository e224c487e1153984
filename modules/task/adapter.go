package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
)

// TaskAdapter implements TaskPort using the service container.
type TaskAdapter struct {
	container mono.ServiceContainer
}

var _ TaskPort = (*TaskAdapter)(nil)

// NewTaskAdapter creates a new TaskAdapter.
func NewTaskAdapter(container mono.ServiceContainer) *TaskAdapter {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &TaskAdapter{container: container}
}

func (a *TaskAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// ListTasks returns the tasks visible to req.Principal.
func (a *TaskAdapter) ListTasks(ctx context.Context, req ListTasksRequest) ([]TaskResponse, error) {
	var resp ListTasksResponse
	if err := a.call(ctx, ServiceListTasks, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// GetTask retrieves one task.
func (a *TaskAdapter) GetTask(ctx context.Context, p user.Principal, taskID string) (*TaskResponse, error) {
	req := GetTaskRequest{Principal: p, TaskID: taskID}
	var resp TaskResult
	if err := a.call(ctx, ServiceGetTask, &req, &resp); err != nil {
		return nil, err
	}
	return resp.task()
}

// CreateTask creates a task.
func (a *TaskAdapter) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var resp TaskResult
	if err := a.call(ctx, ServiceCreateTask, &req, &resp); err != nil {
		return nil, err
	}
	return resp.task()
}

// UpdateTask applies a partial update.
func (a *TaskAdapter) UpdateTask(ctx context.Context, req UpdateTaskRequest) (*TaskResponse, error) {
	var resp TaskResult
	if err := a.call(ctx, ServiceUpdateTask, &req, &resp); err != nil {
		return nil, err
	}
	return resp.task()
}

// DeleteTask deletes a task.
func (a *TaskAdapter) DeleteTask(ctx context.Context, p user.Principal, taskID string) error {
	req := DeleteTaskRequest{Principal: p, TaskID: taskID}
	var resp DeleteTaskResponse
	if err := a.call(ctx, ServiceDeleteTask, &req, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// TaskStats returns per-status counts over p's scope.
func (a *TaskAdapter) TaskStats(ctx context.Context, p user.Principal) (domain.Stats, error) {
	req := TaskStatsRequest{Principal: p}
	var resp TaskStatsResponse
	if err := a.call(ctx, ServiceTaskStats, &req, &resp); err != nil {
		return domain.Stats{}, err
	}
	if err := resp.Err(); err != nil {
		return domain.Stats{}, err
	}
	return resp.Stats, nil
}

func (r TaskResult) task() (*TaskResponse, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Task == nil {
		return nil, errors.New("empty task response")
	}
	return r.Task, nil
}
