package api

import (
	"errors"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"

	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
)

// statusFor maps a typed failure to an HTTP status and error code. ok is false for errors
// that carry no code, which are reported as internal errors.
func statusFor(err error) (status int, code string, ok bool) {
	if code, ok := domain.Code(err); ok {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return fiber.StatusNotFound, code, true
		case errors.Is(err, domain.ErrInvalidAssignee), errors.Is(err, domain.ErrInvalidInput):
			return fiber.StatusBadRequest, code, true
		default:
			return fiber.StatusForbidden, code, true
		}
	}

	if code, ok := auth.ErrorCode(err); ok {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials),
			errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrExpiredToken):
			return fiber.StatusUnauthorized, code, true
		case errors.Is(err, auth.ErrUserExists):
			return fiber.StatusConflict, code, true
		case errors.Is(err, auth.ErrUserNotFound):
			return fiber.StatusNotFound, code, true
		case errors.Is(err, auth.ErrPermissionDenied):
			return fiber.StatusForbidden, code, true
		default:
			return fiber.StatusBadRequest, code, true
		}
	}

	return fiber.StatusInternalServerError, "", false
}

// writeError renders err as an ErrorResponse. Internal errors are logged and never exposed.
func writeError(c *fiber.Ctx, logger types.Logger, err error) error {
	status, code, ok := statusFor(err)
	if !ok {
		logger.Error("internal error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   code,
		Message: err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// customErrorHandler handles errors that escape the route handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
