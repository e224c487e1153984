package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
)

// NewUser describes an account to create.
type NewUser struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// UserUpdate lists the account fields to change. Nil fields are left alone.
type UserUpdate struct {
	Email *string
	Name  *string
	Role  *domain.Role
}

// UserEvents is told about account changes that other modules react to.
type UserEvents interface {
	UserUpdated(ctx context.Context, actor domain.Principal, before, after *domain.User)
	UserDeleted(ctx context.Context, actor domain.Principal, u *domain.User)
}

// AuthService handles authentication and user management business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	events UserEvents
	logger types.Logger
	now    func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithUserEvents sets the receiver of account change notifications.
func WithUserEvents(e UserEvents) Option {
	return func(s *AuthService) { s.events = e }
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, logger types.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a self-service account. Self-registered users are always members.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return s.create(ctx, NewUser{Email: email, Password: password, Name: name, Role: domain.RoleMember})
}

// CreateUser creates an account with an explicit role on behalf of actor, who must be an admin.
func (s *AuthService) CreateUser(ctx context.Context, actor domain.Principal, in NewUser) (*domain.User, error) {
	if !domain.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}
	return s.create(ctx, in)
}

// Bootstrap creates an account with any role without an acting principal.
// It backs the CLI and the seed file; it is never reachable over HTTP.
func (s *AuthService) Bootstrap(ctx context.Context, in NewUser) (*domain.User, error) {
	return s.create(ctx, in)
}

func (s *AuthService) create(ctx context.Context, in NewUser) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user)
}

// RefreshTokens issues a new token pair. The role is re-read from storage, so a refreshed
// access token always carries the user's current role. Logged-out tokens are refused.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := s.repo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.generateTokenPair(user)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// Logout revokes refreshToken, which must have been issued to actor. Access tokens stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, actor domain.Principal, refreshToken string) error {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if claims.UserID != actor.ID || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidToken
	}

	if err := s.repo.RevokeToken(ctx, &RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}); err != nil {
		return err
	}
	if n, err := s.repo.PurgeExpiredTokens(ctx, s.now()); err != nil {
		s.logger.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		s.logger.Debug("purged revoked tokens", "count", n)
	}

	s.logger.Info("user logged out", "user_id", actor.ID)
	return nil
}

// GetUser retrieves a user by ID without an access check. Other modules use it to resolve
// users; requests made on behalf of a user go through ViewUser.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// ViewUser returns the account with userID if actor may see it.
func (s *AuthService) ViewUser(ctx context.Context, actor domain.Principal, userID string) (*domain.User, error) {
	if !domain.CanViewUser(actor, userID) {
		return nil, ErrPermissionDenied
	}
	return s.repo.FindByID(ctx, userID)
}

// UpdateUser changes the account with userID. Admins may edit any account and change roles;
// everyone else may edit only their own email and name.
func (s *AuthService) UpdateUser(ctx context.Context, actor domain.Principal, userID string, in UserUpdate) (*domain.User, error) {
	if !domain.CanEditUser(actor, userID) {
		return nil, ErrPermissionDenied
	}
	if in.Role != nil && !domain.CanManageUsers(actor) {
		return nil, ErrPermissionDenied
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *user

	var fields []string
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			exists, err := s.repo.EmailExists(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email existence: %w", err)
			}
			if exists {
				return nil, ErrUserExists
			}
			user.Email = email
			fields = append(fields, "Email")
		}
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
		fields = append(fields, "Name")
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = *in.Role
		fields = append(fields, "Role")
	}
	if len(fields) == 0 {
		return user, nil
	}

	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user, append(fields, "UpdatedAt")...); err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", user.ID, "updated_by", actor.ID, "fields", fields)
	if s.events != nil {
		s.events.UserUpdated(ctx, actor, &before, user)
	}
	return user, nil
}

// DeleteUser removes the account with userID. Admins may delete any account, everyone else
// only their own.
func (s *AuthService) DeleteUser(ctx context.Context, actor domain.Principal, userID string) error {
	if !domain.CanEditUser(actor, userID) {
		return ErrPermissionDenied
	}

	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", deleted.ID, "deleted_by", actor.ID)
	if s.events != nil {
		s.events.UserDeleted(ctx, actor, deleted)
	}
	return nil
}

// ChangePassword replaces actor's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Principal, current, next string) error {
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrIncorrectPassword
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user, "PasswordHash", "UpdatedAt"); err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// ListUsers returns the user directory to admins and managers.
func (s *AuthService) ListUsers(ctx context.Context, actor domain.Principal, role *domain.Role) ([]*domain.User, error) {
	if !domain.CanListUsers(actor) {
		return nil, ErrPermissionDenied
	}
	if role != nil && !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.repo.List(ctx, role)
}

func (s *AuthService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}
