package task

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/events"
)

// eventNotifier publishes task lifecycle events on the mono event bus.
// Publishing is best-effort: failures are logged and never fail the mutation.
type eventNotifier struct {
	bus    mono.EventBus
	logger types.Logger
}

func newEventNotifier(bus mono.EventBus, logger types.Logger) *eventNotifier {
	return &eventNotifier{bus: bus, logger: logger}
}

func (n *eventNotifier) TaskCreated(_ context.Context, t *domain.Task) {
	event := events.TaskCreatedEvent{
		TaskID:     t.ID,
		Title:      t.Title,
		Status:     string(t.Status),
		CreatedBy:  t.CreatedBy,
		AssigneeID: deref(t.AssigneeID),
		CreatedAt:  t.CreatedAt,
	}
	if err := events.TaskCreatedV1.Publish(n.bus, event, nil); err != nil {
		n.logger.Warn("failed to publish TaskCreated", "task_id", t.ID, "error", err)
	}
}

func (n *eventNotifier) TaskUpdated(_ context.Context, actor user.Principal, before, after *domain.Task, fields []string) {
	event := events.TaskUpdatedEvent{
		TaskID:             after.ID,
		Title:              after.Title,
		Status:             string(after.Status),
		CreatedBy:          after.CreatedBy,
		UpdatedBy:          actor.ID,
		Changed:            fields,
		AssigneeID:         deref(after.AssigneeID),
		PreviousAssigneeID: deref(before.AssigneeID),
		PreviousStatus:     string(before.Status),
		UpdatedAt:          after.UpdatedAt,
	}
	if err := events.TaskUpdatedV1.Publish(n.bus, event, nil); err != nil {
		n.logger.Warn("failed to publish TaskUpdated", "task_id", after.ID, "error", err)
	}
}

func (n *eventNotifier) TaskDeleted(_ context.Context, actor user.Principal, t *domain.Task) {
	event := events.TaskDeletedEvent{
		TaskID:     t.ID,
		Title:      t.Title,
		CreatedBy:  t.CreatedBy,
		DeletedBy:  actor.ID,
		AssigneeID: deref(t.AssigneeID),
		DeletedAt:  time.Now().UTC(),
	}
	if err := events.TaskDeletedV1.Publish(n.bus, event, nil); err != nil {
		n.logger.Warn("failed to publish TaskDeleted", "task_id", t.ID, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
