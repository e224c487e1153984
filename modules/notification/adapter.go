package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ListNotificationsRequest asks for a user's most recent notifications.
type ListNotificationsRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// ListNotificationsResponse is the response for list-notifications.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
}

// NotificationPort is the interface other modules use to read inboxes.
type NotificationPort interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
}

// NotificationAdapter implements NotificationPort using the service container.
type NotificationAdapter struct {
	container mono.ServiceContainer
}

var _ NotificationPort = (*NotificationAdapter)(nil)

// NewNotificationAdapter creates a new NotificationAdapter.
func NewNotificationAdapter(container mono.ServiceContainer) *NotificationAdapter {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &NotificationAdapter{container: container}
}

// ListNotifications returns up to limit notifications for userID, newest first.
func (a *NotificationAdapter) ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error) {
	req := ListNotificationsRequest{UserID: userID, Limit: limit}
	var resp ListNotificationsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListNotifications,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListNotifications, err)
	}
	return resp.Notifications, nil
}
