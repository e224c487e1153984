package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/kabilangimba/team-task-management-system/events"
)

// ServiceListNotifications is the request-reply service returning a user's inbox.
const ServiceListNotifications = "list-notifications"

// NotificationModule turns task events into per-user notifications.
type NotificationModule struct {
	inbox  *Inbox
	logger types.Logger
}

var (
	_ mono.Module                = (*NotificationModule)(nil)
	_ mono.EventConsumerModule   = (*NotificationModule)(nil)
	_ mono.ServiceProviderModule = (*NotificationModule)(nil)
	_ mono.HealthCheckableModule = (*NotificationModule)(nil)
)

// NewModule creates a new NotificationModule keeping inboxSize entries per user.
func NewModule(inboxSize int, logger types.Logger) *NotificationModule {
	return &NotificationModule{
		inbox:  NewInbox(inboxSize),
		logger: logger.WithModule("notification"),
	}
}

// Name returns the module name.
func (m *NotificationModule) Name() string {
	return "notification"
}

// Start starts the module.
func (m *NotificationModule) Start(_ context.Context) error {
	m.logger.Info("module started, listening for task events")
	return nil
}

// Stop stops the module.
func (m *NotificationModule) Stop(_ context.Context) error {
	m.logger.Info("module stopped", "notifications", m.inbox.Count())
	return nil
}

// Health reports how many notifications are held.
func (m *NotificationModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"notifications": m.inbox.Count(),
		},
	}
}

// RegisterEventConsumers subscribes to task lifecycle events.
func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	m.logger.Info("registered event consumers", "events", []string{"TaskCreated", "TaskUpdated", "TaskDeleted"})
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListNotifications, json.Unmarshal, json.Marshal, m.handleListNotifications,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListNotifications, err)
	}
	return nil
}

func (m *NotificationModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	if event.AssigneeID == "" || event.AssigneeID == event.CreatedBy {
		return nil
	}
	m.inbox.Deliver(Notification{
		UserID:    event.AssigneeID,
		TaskID:    event.TaskID,
		Kind:      KindTaskAssigned,
		Message:   fmt.Sprintf("You were assigned %q", event.Title),
		ActorID:   event.CreatedBy,
		CreatedAt: event.CreatedAt,
	})
	m.logger.Debug("task created notification", "task_id", event.TaskID, "recipient", event.AssigneeID)
	return nil
}

func (m *NotificationModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	notified := []string{event.UpdatedBy}
	deliver := func(userID, kind, message string) {
		if userID == "" || slices.Contains(notified, userID) {
			return
		}
		notified = append(notified, userID)
		m.inbox.Deliver(Notification{
			UserID:    userID,
			TaskID:    event.TaskID,
			Kind:      kind,
			Message:   message,
			ActorID:   event.UpdatedBy,
			CreatedAt: event.UpdatedAt,
		})
	}

	if event.AssigneeID != event.PreviousAssigneeID {
		deliver(event.AssigneeID, KindTaskAssigned, fmt.Sprintf("You were assigned %q", event.Title))
		deliver(event.PreviousAssigneeID, KindTaskUnassigned, fmt.Sprintf("You were unassigned from %q", event.Title))
	}

	message := fmt.Sprintf("%q was updated", event.Title)
	if event.Status != event.PreviousStatus {
		message = fmt.Sprintf("%q moved from %s to %s", event.Title, event.PreviousStatus, event.Status)
	}
	deliver(event.AssigneeID, KindTaskUpdated, message)
	deliver(event.CreatedBy, KindTaskUpdated, message)

	m.logger.Debug("task updated notification", "task_id", event.TaskID, "recipients", len(notified)-1)
	return nil
}

func (m *NotificationModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	message := fmt.Sprintf("%q was deleted", event.Title)
	for _, userID := range slices.Compact([]string{event.AssigneeID, event.CreatedBy}) {
		if userID == "" || userID == event.DeletedBy {
			continue
		}
		m.inbox.Deliver(Notification{
			UserID:    userID,
			TaskID:    event.TaskID,
			Kind:      KindTaskDeleted,
			Message:   message,
			ActorID:   event.DeletedBy,
			CreatedAt: event.DeletedAt,
		})
	}
	m.logger.Debug("task deleted notification", "task_id", event.TaskID)
	return nil
}

func (m *NotificationModule) handleListNotifications(_ context.Context, req ListNotificationsRequest, _ *mono.Msg) (ListNotificationsResponse, error) {
	list := m.inbox.List(req.UserID, req.Limit)
	return ListNotificationsResponse{
		Notifications: list,
		Total:         len(list),
	}, nil
}
