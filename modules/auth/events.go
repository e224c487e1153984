package auth

import (
	"context"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/events"
)

// eventPublisher publishes account changes on the mono event bus. Failures are logged and
// never fail the change itself.
type eventPublisher struct {
	bus    mono.EventBus
	logger types.Logger
}

func newEventPublisher(bus mono.EventBus, logger types.Logger) *eventPublisher {
	return &eventPublisher{bus: bus, logger: logger}
}

func (p *eventPublisher) UserUpdated(_ context.Context, actor domain.Principal, before, after *domain.User) {
	event := events.UserUpdatedEvent{
		UserID:       after.ID,
		Email:        after.Email,
		Role:         string(after.Role),
		PreviousRole: string(before.Role),
		UpdatedBy:    actor.ID,
		UpdatedAt:    after.UpdatedAt,
	}
	if err := events.UserUpdatedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("failed to publish UserUpdated", "user_id", after.ID, "error", err)
	}
}

func (p *eventPublisher) UserDeleted(_ context.Context, actor domain.Principal, u *domain.User) {
	event := events.UserDeletedEvent{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		DeletedBy: actor.ID,
		DeletedAt: time.Now().UTC(),
	}
	if err := events.UserDeletedV1.Publish(p.bus, event, nil); err != nil {
		p.logger.Warn("failed to publish UserDeleted", "user_id", u.ID, "error", err)
	}
}
