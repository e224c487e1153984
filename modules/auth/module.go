package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"

	"github.com/kabilangimba/team-task-management-system/database"
	domain "github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/events"
)

// Service names registered by the auth module.
const (
	ServiceRegister       = "register"
	ServiceLogin          = "login"
	ServiceRefreshToken   = "refresh-token"
	ServiceValidateToken  = "validate-token"
	ServiceGetUser        = "get-user"
	ServiceCreateUser     = "create-user"
	ServiceListUsers      = "list-users"
	ServiceViewUser       = "view-user"
	ServiceUpdateUser     = "update-user"
	ServiceDeleteUser     = "delete-user"
	ServiceChangePassword = "change-password"
	ServiceLogout         = "logout"
)

// Config configures the auth module.
type Config struct {
	Database   database.Config
	JWT        JWTConfig
	BcryptCost int
	// SeedFile, when set, names a YAML file of users created on start.
	SeedFile string
}

// AuthModule provides authentication and user directory services.
type AuthModule struct {
	config   Config
	logger   types.Logger
	db       *gorm.DB
	service  *AuthService
	eventBus mono.EventBus
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)
var _ mono.EventEmitterModule = (*AuthModule)(nil)
var _ mono.EventBusAwareModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(config Config, logger types.Logger) *AuthModule {
	return &AuthModule{
		config: config,
		logger: logger.WithModule("auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// SetEventBus receives the event bus used to publish account changes.
func (m *AuthModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *AuthModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserUpdatedV1.ToBase(),
		events.UserDeletedV1.ToBase(),
	}
}

// Start opens the user database and seeds it when a seed file is configured.
func (m *AuthModule) Start(ctx context.Context) error {
	db, err := database.Open(m.config.Database, Models()...)
	if err != nil {
		return err
	}
	m.db = db

	hasher := NewPasswordHasher()
	if m.config.BcryptCost != 0 {
		hasher = NewPasswordHasherWithCost(m.config.BcryptCost)
	}
	var opts []Option
	if m.eventBus != nil {
		opts = append(opts, WithUserEvents(newEventPublisher(m.eventBus, m.logger)))
	}
	m.service = NewAuthService(NewUserRepository(db), hasher, NewJWTManager(m.config.JWT), m.logger, opts...)

	if m.config.SeedFile != "" {
		seed, err := LoadSeedFile(m.config.SeedFile)
		if err != nil {
			return err
		}
		n, err := m.service.Seed(ctx, seed)
		if err != nil {
			return err
		}
		m.logger.Info("seeded users", "file", m.config.SeedFile, "created", n)
	}

	m.logger.Info("module started", "database", m.config.Database.Path)
	return nil
}

// Stop closes the database.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Error("failed to close database", "error", err)
	}
	m.logger.Info("module stopped")
	return nil
}

// Service returns the auth service. It is nil until Start succeeds.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// Health returns the health status of the module.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.config.Database.Path,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateUser, json.Unmarshal, json.Marshal, m.handleCreateUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListUsers, json.Unmarshal, json.Marshal, m.handleListUsers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListUsers, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceViewUser, json.Unmarshal, json.Marshal, m.handleViewUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceViewUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateUser, json.Unmarshal, json.Marshal, m.handleUpdateUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteUser, json.Unmarshal, json.Marshal, m.handleDeleteUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceChangePassword, json.Unmarshal, json.Marshal, m.handleChangePassword,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceChangePassword, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogout, json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogout, err)
	}

	m.logger.Info("registered services", "services", []string{
		ServiceRegister, ServiceLogin, ServiceRefreshToken, ServiceValidateToken,
		ServiceGetUser, ServiceCreateUser, ServiceListUsers, ServiceViewUser,
		ServiceUpdateUser, ServiceDeleteUser, ServiceChangePassword, ServiceLogout,
	})
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if f, ok := failure(err); ok {
			return RegisterResponse{Failure: f}, nil
		}
		return RegisterResponse{}, err
	}
	return RegisterResponse{User: toUserResponse(user)}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if f, ok := failure(err); ok {
			return TokenResponse{Failure: f}, nil
		}
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		if f, ok := failure(err); ok {
			return TokenResponse{Failure: f}, nil
		}
		return TokenResponse{}, err
	}
	return toTokenResponse(tokens), nil
}

// handleValidateToken reports validation failures in the response rather than as an error.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		reason := ErrInvalidToken
		if errors.Is(err, ErrExpiredToken) {
			reason = ErrExpiredToken
		}
		f, _ := failure(reason)
		return ValidateTokenResponse{Valid: false, Failure: f}, nil
	}

	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		if f, ok := failure(err); ok {
			return GetUserResponse{Failure: f}, nil
		}
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: toUserResponse(user)}, nil
}

func (m *AuthModule) handleCreateUser(ctx context.Context, req CreateUserRequest, _ *mono.Msg) (CreateUserResponse, error) {
	user, err := m.service.CreateUser(ctx, req.Actor, NewUser{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		if f, ok := failure(err); ok {
			return CreateUserResponse{Failure: f}, nil
		}
		return CreateUserResponse{}, err
	}
	return CreateUserResponse{User: toUserResponse(user)}, nil
}

func (m *AuthModule) handleListUsers(ctx context.Context, req ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	users, err := m.service.ListUsers(ctx, req.Actor, req.Role)
	if err != nil {
		if f, ok := failure(err); ok {
			return ListUsersResponse{Failure: f}, nil
		}
		return ListUsersResponse{}, err
	}

	resp := ListUsersResponse{
		Users: make([]UserResponse, 0, len(users)),
		Total: len(users),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	return resp, nil
}

func (m *AuthModule) handleViewUser(ctx context.Context, req ViewUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.ViewUser(ctx, req.Actor, req.UserID)
	if err != nil {
		if f, ok := failure(err); ok {
			return GetUserResponse{Failure: f}, nil
		}
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: toUserResponse(user)}, nil
}

func (m *AuthModule) handleUpdateUser(ctx context.Context, req UpdateUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.UpdateUser(ctx, req.Actor, req.UserID, UserUpdate{
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
	})
	if err != nil {
		if f, ok := failure(err); ok {
			return GetUserResponse{Failure: f}, nil
		}
		return GetUserResponse{}, err
	}
	return GetUserResponse{User: toUserResponse(user)}, nil
}

func (m *AuthModule) handleDeleteUser(ctx context.Context, req DeleteUserRequest, _ *mono.Msg) (StatusResponse, error) {
	return statusResponse(m.service.DeleteUser(ctx, req.Actor, req.UserID))
}

func (m *AuthModule) handleChangePassword(ctx context.Context, req ChangePasswordRequest, _ *mono.Msg) (StatusResponse, error) {
	return statusResponse(m.service.ChangePassword(ctx, req.Actor, req.CurrentPassword, req.NewPassword))
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (StatusResponse, error) {
	return statusResponse(m.service.Logout(ctx, req.Actor, req.RefreshToken))
}

// statusResponse carries auth errors in-band and returns anything else as a service error.
func statusResponse(err error) (StatusResponse, error) {
	if err == nil {
		return StatusResponse{}, nil
	}
	if f, ok := failure(err); ok {
		return StatusResponse{Failure: f}, nil
	}
	return StatusResponse{}, err
}

func toTokenResponse(t *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
	}
}
