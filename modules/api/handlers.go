package api

import (
	"encoding/json"
	"strconv"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"

	"github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
	"github.com/kabilangimba/team-task-management-system/modules/notification"
	"github.com/kabilangimba/team-task-management-system/modules/task"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth          auth.AuthPort
	tasks         task.TaskPort
	notifications notification.NotificationPort
	logger        types.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, taskPort task.TaskPort, notificationPort notification.NotificationPort, logger types.Logger) *Handlers {
	return &Handlers{
		auth:          authPort,
		tasks:         taskPort,
		notifications: notificationPort,
		logger:        logger,
	}
}

// Register handles self-registration. New accounts are always members.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	u, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	tokens, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toTokenResponse(tokens))
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(toTokenResponse(tokens))
}

// Me returns the authenticated user's profile.
func (h *Handlers) Me(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}
	u, err := h.auth.GetUser(c.UserContext(), p.ID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(u)
}

// ListUsers returns the user directory, optionally filtered by ?role=.
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var role *user.Role
	if raw := c.Query("role"); raw != "" {
		r, err := user.ParseRole(raw)
		if err != nil {
			return badRequest(c, err.Error())
		}
		role = &r
	}

	users, err := h.auth.ListUsers(c.UserContext(), p, role)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(UserListResponse{Users: users, Total: len(users)})
}

// CreateUser creates a user with an explicit role. Only admins may call it.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	u, err := h.auth.CreateUser(c.UserContext(), auth.CreateUserRequest{
		Actor:    p,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     user.Role(req.Role),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// GetUser returns one account. Members may only look up themselves.
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	u, err := h.auth.ViewUser(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(u)
}

// UpdateUser serves both PUT and PATCH on an account. Absent fields are left unchanged.
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	update := auth.UpdateUserRequest{
		Actor:  p,
		UserID: c.Params("id"),
		Email:  req.Email,
		Name:   req.Name,
	}
	if req.Role != nil {
		role := user.Role(*req.Role)
		update.Role = &role
	}

	u, err := h.auth.UpdateUser(c.UserContext(), update)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(u)
}

// DeleteUser deletes an account together with the tasks it created.
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.auth.DeleteUser(c.UserContext(), p, c.Params("id")); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword replaces the caller's password.
func (h *Handlers) ChangePassword(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return badRequest(c, "Current and new password are required")
	}

	if err := h.auth.ChangePassword(c.UserContext(), auth.ChangePasswordRequest{
		Actor:           p,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Logout revokes the given refresh token. Access tokens stay valid until they expire.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var req LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	if err := h.auth.Logout(c.UserContext(), p, req.RefreshToken); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTasks returns the caller's visible tasks, filtered by ?status= and ?assignee=.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	req := task.ListTasksRequest{Principal: p}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if assignee := c.Query("assignee"); assignee != "" {
		req.Assignee = &assignee
	}

	tasks, err := h.tasks.ListTasks(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	if tasks == nil {
		tasks = []task.TaskResponse{}
	}
	return c.JSON(TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

// CreateTask creates a task owned by the caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.tasks.CreateTask(c.UserContext(), task.CreateTaskRequest{
		Principal:   p,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    req.Deadline,
		Assignee:    req.Assignee,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GetTask returns one task.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	t, err := h.tasks.GetTask(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(t)
}

// UpdateTask serves both PUT and PATCH: only the keys present in the body are applied.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	body := c.Body()
	if len(body) == 0 {
		return badRequest(c, "Request body is required")
	}
	// Fiber reuses the request buffer once the handler returns.
	patch := make(json.RawMessage, len(body))
	copy(patch, body)

	t, err := h.tasks.UpdateTask(c.UserContext(), task.UpdateTaskRequest{
		Principal: p,
		TaskID:    c.Params("id"),
		Patch:     patch,
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(t)
}

// DeleteTask deletes a task.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.tasks.DeleteTask(c.UserContext(), p, c.Params("id")); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// TaskStats returns per-status counts over the caller's visible tasks.
func (h *Handlers) TaskStats(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	stats, err := h.tasks.TaskStats(c.UserContext(), p)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(StatsResponse{Stats: stats})
}

// ListNotifications returns the caller's notifications, newest first. ?limit= caps the count.
func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	p, ok := principal(c)
	if !ok {
		return unauthenticated(c)
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a non-negative integer")
		}
		limit = n
	}

	list, err := h.notifications.ListNotifications(c.UserContext(), p.ID, limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	if list == nil {
		list = []notification.Notification{}
	}
	return c.JSON(NotificationListResponse{Notifications: list, Total: len(list)})
}

func toTokenResponse(t *auth.TokenResponse) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
	}
}
