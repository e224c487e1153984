package task

import (
	"context"
	"errors"

	"github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
)

// authDirectory resolves assignee roles through the auth module.
type authDirectory struct {
	auth auth.AuthPort
}

// NewAuthDirectory returns a Directory backed by the auth module's get-user service.
func NewAuthDirectory(port auth.AuthPort) Directory {
	return &authDirectory{auth: port}
}

func (d *authDirectory) LookupRole(ctx context.Context, userID string) (user.Role, error) {
	u, err := d.auth.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return "", ErrUnknownUser
		}
		return "", err
	}
	return u.Role, nil
}
