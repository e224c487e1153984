package api

import (
	"time"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
	"github.com/kabilangimba/team-task-management-system/modules/notification"
	"github.com/kabilangimba/team-task-management-system/modules/task"
)

// RegisterRequest represents a self-registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the body of PUT and PATCH /users/:id.
type UpdateUserRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Role  *string `json:"role"`
}

// ChangePasswordRequest is the body of PUT /users/change_password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LogoutRequest is the body of POST /auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserListResponse lists users.
type UserListResponse struct {
	Users []auth.UserResponse `json:"users"`
	Total int                 `json:"total"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      *string    `json:"status"`
	Deadline    *time.Time `json:"deadline"`
	Assignee    *string    `json:"assignee"`
}

// TaskListResponse lists tasks.
type TaskListResponse struct {
	Tasks []task.TaskResponse `json:"tasks"`
	Total int                 `json:"total"`
}

// StatsResponse is the body of GET /tasks/stats.
type StatsResponse struct {
	domain.Stats
}

// NotificationListResponse lists the caller's notifications.
type NotificationListResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Total         int                         `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
