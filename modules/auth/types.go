package auth

import (
	"time"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
)

// Failure carries a typed auth error across the request-reply boundary. Infrastructure failures
// are returned as service errors instead and never populate it.
type Failure struct {
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Err rebuilds the typed error, or returns nil when the call succeeded.
func (f Failure) Err() error {
	if f.ErrorCode == "" {
		return nil
	}
	if err := ErrorFromCode(f.ErrorCode); err != nil {
		return err
	}
	return &unknownFailure{code: f.ErrorCode, message: f.ErrorMessage}
}

type unknownFailure struct {
	code    string
	message string
}

func (e *unknownFailure) Error() string { return e.code + ": " + e.message }

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterResponse represents a user registration response.
type RegisterResponse struct {
	User UserResponse `json:"user"`
	Failure
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Failure
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateTokenRequest represents a token validation request.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse represents a token validation response.
type ValidateTokenResponse struct {
	Valid  bool        `json:"valid"`
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	Failure
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	User UserResponse `json:"user"`
	Failure
}

// CreateUserRequest creates a user with an explicit role.
type CreateUserRequest struct {
	Actor    domain.Principal `json:"actor"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Name     string           `json:"name"`
	Role     domain.Role      `json:"role"`
}

// CreateUserResponse is returned by create-user.
type CreateUserResponse struct {
	User UserResponse `json:"user"`
	Failure
}

// ListUsersRequest lists the user directory.
type ListUsersRequest struct {
	Actor domain.Principal `json:"actor"`
	Role  *domain.Role     `json:"role,omitempty"`
}

// ListUsersResponse is returned by list-users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Failure
}

// ViewUserRequest reads an account on behalf of Actor.
type ViewUserRequest struct {
	Actor  domain.Principal `json:"actor"`
	UserID string           `json:"user_id"`
}

// UpdateUserRequest changes the present fields of an account on behalf of Actor.
type UpdateUserRequest struct {
	Actor  domain.Principal `json:"actor"`
	UserID string           `json:"user_id"`
	Email  *string          `json:"email,omitempty"`
	Name   *string          `json:"name,omitempty"`
	Role   *domain.Role     `json:"role,omitempty"`
}

// DeleteUserRequest deletes an account on behalf of Actor.
type DeleteUserRequest struct {
	Actor  domain.Principal `json:"actor"`
	UserID string           `json:"user_id"`
}

// ChangePasswordRequest replaces Actor's own password.
type ChangePasswordRequest struct {
	Actor           domain.Principal `json:"actor"`
	CurrentPassword string           `json:"current_password"`
	NewPassword     string           `json:"new_password"`
}

// LogoutRequest revokes one of Actor's refresh tokens.
type LogoutRequest struct {
	Actor        domain.Principal `json:"actor"`
	RefreshToken string           `json:"refresh_token"`
}

// StatusResponse is returned by services that produce no data.
type StatusResponse struct {
	Failure
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// failure converts err into an in-band failure, or reports false when err is not an auth error.
func failure(err error) (Failure, bool) {
	code, ok := ErrorCode(err)
	if !ok {
		return Failure{}, false
	}
	return Failure{ErrorCode: code, ErrorMessage: err.Error()}, true
}
