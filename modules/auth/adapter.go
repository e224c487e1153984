package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
)

// AuthPort is the interface other modules use to reach auth functionality.
// Auth failures come back as the package's sentinel errors.
type AuthPort interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID string) (*UserResponse, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, actor domain.Principal, role *domain.Role) ([]UserResponse, error)
	ViewUser(ctx context.Context, actor domain.Principal, userID string) (*UserResponse, error)
	UpdateUser(ctx context.Context, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor domain.Principal, userID string) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	Logout(ctx context.Context, actor domain.Principal, refreshToken string) error
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth adapter requires non-nil ServiceContainer")
	}
	return &AuthAdapter{
		container: container,
	}
}

func (a *AuthAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// Register creates a member account.
func (a *AuthAdapter) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	var resp RegisterResponse
	if err := a.call(ctx, ServiceRegister, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login exchanges credentials for a token pair.
func (a *AuthAdapter) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := a.call(ctx, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := a.call(ctx, ServiceRefreshToken, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := a.call(ctx, ServiceValidateToken, &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID: resp.UserID,
		Email:  resp.Email,
		Role:   resp.Role,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse
	if err := a.call(ctx, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// CreateUser creates a user with an explicit role on behalf of req.Actor.
func (a *AuthAdapter) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	var resp CreateUserResponse
	if err := a.call(ctx, ServiceCreateUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListUsers returns the user directory visible to actor.
func (a *AuthAdapter) ListUsers(ctx context.Context, actor domain.Principal, role *domain.Role) ([]UserResponse, error) {
	req := ListUsersRequest{Actor: actor, Role: role}
	var resp ListUsersResponse
	if err := a.call(ctx, ServiceListUsers, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// ViewUser returns the account with userID if actor may see it.
func (a *AuthAdapter) ViewUser(ctx context.Context, actor domain.Principal, userID string) (*UserResponse, error) {
	req := ViewUserRequest{Actor: actor, UserID: userID}
	var resp GetUserResponse
	if err := a.call(ctx, ServiceViewUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// UpdateUser changes the present fields of an account on behalf of req.Actor.
func (a *AuthAdapter) UpdateUser(ctx context.Context, req UpdateUserRequest) (*UserResponse, error) {
	var resp GetUserResponse
	if err := a.call(ctx, ServiceUpdateUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// DeleteUser deletes the account with userID on behalf of actor.
func (a *AuthAdapter) DeleteUser(ctx context.Context, actor domain.Principal, userID string) error {
	req := DeleteUserRequest{Actor: actor, UserID: userID}
	var resp StatusResponse
	if err := a.call(ctx, ServiceDeleteUser, &req, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// ChangePassword replaces req.Actor's password.
func (a *AuthAdapter) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	var resp StatusResponse
	if err := a.call(ctx, ServiceChangePassword, &req, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// Logout revokes one of actor's refresh tokens.
func (a *AuthAdapter) Logout(ctx context.Context, actor domain.Principal, refreshToken string) error {
	req := LogoutRequest{Actor: actor, RefreshToken: refreshToken}
	var resp StatusResponse
	if err := a.call(ctx, ServiceLogout, &req, &resp); err != nil {
		return err
	}
	return resp.Err()
}
