package task

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Status represents the state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// MaxTitleLength is the longest title a task may carry, in characters.
const MaxTitleLength = 255

// ParseStatus converts s into a Status. Any value outside the enumeration fails with ErrInvalidInput.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusTodo, StatusInProgress, StatusDone:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
}

// Task is the core domain entity.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      Status     `gorm:"size:20;not null;default:todo;index" json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	AssigneeID  *string    `gorm:"size:36;index" json:"assignee,omitempty"`
	CreatedBy   string     `gorm:"size:36;not null;index" json:"created_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// AssignedTo reports whether the task is assigned to userID.
func (t *Task) AssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// ValidateTitle checks the non-empty and length constraints on a title.
func ValidateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, MaxTitleLength)
	}
	return nil
}

// Stats holds per-status task counts over a principal's role scope.
type Stats struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
}

// Add counts n tasks in status s.
func (s *Stats) Add(st Status, n int64) {
	switch st {
	case StatusTodo:
		s.Todo += n
	case StatusInProgress:
		s.InProgress += n
	case StatusDone:
		s.Done += n
	default:
		return
	}
	s.Total += n
}
