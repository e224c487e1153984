package task

import (
	"context"

	"github.com/go-monolith/mono"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
)

func (m *TaskModule) handleListTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	var status *domain.Status
	if req.Status != nil {
		st := domain.Status(*req.Status)
		status = &st
	}

	tasks, err := m.service.List(ctx, req.Principal, status, req.Assignee)
	if err != nil {
		if f, ok := failure(err); ok {
			return ListTasksResponse{Failure: f}, nil
		}
		return ListTasksResponse{}, err
	}

	resp := ListTasksResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Total: len(tasks),
	}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return resp, nil
}

func (m *TaskModule) handleGetTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResult, error) {
	t, err := m.service.Get(ctx, req.Principal, req.TaskID)
	return taskResult(t, err)
}

func (m *TaskModule) handleCreateTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	in := CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Assignee:    req.Assignee,
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		in.Status = &st
	}

	t, err := m.service.Create(ctx, req.Principal, in)
	return taskResult(t, err)
}

func (m *TaskModule) handleUpdateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResult, error) {
	patch, err := domain.DecodePatch(req.Patch)
	if err != nil {
		return taskResult(nil, err)
	}
	t, err := m.service.Update(ctx, req.Principal, req.TaskID, patch)
	return taskResult(t, err)
}

func (m *TaskModule) handleDeleteTask(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	if err := m.service.Delete(ctx, req.Principal, req.TaskID); err != nil {
		if f, ok := failure(err); ok {
			return DeleteTaskResponse{Failure: f}, nil
		}
		return DeleteTaskResponse{}, err
	}
	return DeleteTaskResponse{Deleted: true}, nil
}

func (m *TaskModule) handleTaskStats(ctx context.Context, req TaskStatsRequest, _ *mono.Msg) (TaskStatsResponse, error) {
	stats, err := m.service.Stats(ctx, req.Principal)
	if err != nil {
		if f, ok := failure(err); ok {
			return TaskStatsResponse{Failure: f}, nil
		}
		return TaskStatsResponse{}, err
	}
	return TaskStatsResponse{Stats: stats}, nil
}

// taskResult folds a single-task outcome into a response, keeping policy errors in-band.
func taskResult(t *domain.Task, err error) (TaskResult, error) {
	if err != nil {
		if f, ok := failure(err); ok {
			return TaskResult{Failure: f}, nil
		}
		return TaskResult{}, err
	}
	resp := toTaskResponse(t)
	return TaskResult{Task: &resp}, nil
}
