package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// UserUpdatedEvent is emitted after an account changes.
type UserUpdatedEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PreviousRole string    `json:"previous_role"`
	UpdatedBy    string    `json:"updated_by"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserUpdatedV1 is the typed event definition for account updates.
// Subject: events.auth.v1.user-updated
var UserUpdatedV1 = helper.EventDefinition[UserUpdatedEvent](
	"auth", "UserUpdated", "v1",
)

// UserDeletedEvent is emitted when an account is deleted.
type UserDeletedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	DeletedBy string    `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
}

// UserDeletedV1 is the typed event definition for account deletion.
// Subject: events.auth.v1.user-deleted
var UserDeletedV1 = helper.EventDefinition[UserDeletedEvent](
	"auth", "UserDeleted", "v1",
)
