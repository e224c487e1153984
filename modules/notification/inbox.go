package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	KindTaskAssigned   = "task_assigned"
	KindTaskUnassigned = "task_unassigned"
	KindTaskUpdated    = "task_updated"
	KindTaskDeleted    = "task_deleted"
)

// DefaultInboxSize is how many notifications are kept per user.
const DefaultInboxSize = 100

// Notification is a message for one user about a task they are involved in.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox keeps the most recent notifications per user in memory.
type Inbox struct {
	mu    sync.RWMutex
	size  int
	users map[string][]Notification
}

// NewInbox creates an inbox holding at most size notifications per user.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{
		size:  size,
		users: make(map[string][]Notification),
	}
}

// Deliver appends n to its recipient's inbox, dropping the oldest entry when full.
func (b *Inbox) Deliver(n Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := append(b.users[n.UserID], n)
	if len(list) > b.size {
		list = list[len(list)-b.size:]
	}
	b.users[n.UserID] = list
}

// List returns up to limit notifications for userID, newest first. limit <= 0 means all.
func (b *Inbox) List(userID string, limit int) []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.users[userID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	result := make([]Notification, 0, limit)
	for i := len(list) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, list[i])
	}
	return result
}

// Count returns the number of notifications held across all users.
func (b *Inbox) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, list := range b.users {
		total += len(list)
	}
	return total
}
