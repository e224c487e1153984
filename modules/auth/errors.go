package auth

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
	// ErrInvalidRole is returned when a role outside admin, manager and member is requested.
	ErrInvalidRole = errors.New("role must be one of admin, manager, member")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrPermissionDenied is returned when the caller's role may not manage or browse users.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrIncorrectPassword is returned when a password change quotes the wrong current password.
	ErrIncorrectPassword = errors.New("current password is incorrect")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidToken, "invalid_token"},
	{ErrExpiredToken, "expired_token"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrInvalidEmail, "invalid_email"},
	{ErrWeakPassword, "weak_password"},
	{ErrPasswordTooLong, "password_too_long"},
	{ErrInvalidRole, "invalid_role"},
	{ErrUserNotFound, "user_not_found"},
	{ErrUserExists, "user_exists"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrIncorrectPassword, "incorrect_password"},
}

// ErrorCode returns the wire code for an auth error. ok is false for infrastructure errors.
func ErrorCode(err error) (code string, ok bool) {
	if err == nil {
		return "", false
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return "", false
}

// ErrorFromCode returns the auth error for a wire code, or nil if the code is unknown.
func ErrorFromCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
