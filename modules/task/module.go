package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"

	"github.com/kabilangimba/team-task-management-system/database"
	domain "github.com/kabilangimba/team-task-management-system/domain/task"
	"github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/events"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
	"github.com/kabilangimba/team-task-management-system/modules/cache"
)

// Service names registered by the task module.
const (
	ServiceListTasks  = "list-tasks"
	ServiceGetTask    = "get-task"
	ServiceCreateTask = "create-task"
	ServiceUpdateTask = "update-task"
	ServiceDeleteTask = "delete-task"
	ServiceTaskStats  = "task-stats"
)

// Config configures the task module.
type Config struct {
	Database database.Config
}

// TaskModule owns tasks and enforces who may see and change them.
type TaskModule struct {
	config   Config
	logger   types.Logger
	db       *gorm.DB
	service  *Service
	authPort auth.AuthPort
	eventBus mono.EventBus
	cache    *cache.StatsCache
}

var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.DependentModule       = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.EventBusAwareModule   = (*TaskModule)(nil)
	_ mono.EventConsumerModule   = (*TaskModule)(nil)
	_ mono.UsePluginModule       = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a new TaskModule.
func NewModule(config Config, logger types.Logger) *TaskModule {
	return &TaskModule{
		config: config,
		logger: logger.WithModule("task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Dependencies returns the modules whose services the task module calls.
func (m *TaskModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives the auth module's service container.
func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authPort = auth.NewAuthAdapter(container)
	}
}

// SetEventBus receives the event bus used to publish task events.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
	}
}

// SetPlugin receives the optional stats cache plugin.
func (m *TaskModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if p, ok := plugin.(*cache.PluginModule); ok {
		m.cache = p.Port()
		m.logger.Info("cache plugin injected")
	}
}

// Start opens the task database and builds the service.
func (m *TaskModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("auth dependency not set")
	}

	db, err := database.Open(m.config.Database, &domain.Task{})
	if err != nil {
		return err
	}
	m.db = db

	var opts []Option
	if m.cache != nil {
		opts = append(opts, WithStatsCache(m.cache))
	}
	if m.eventBus != nil {
		opts = append(opts, WithNotifier(newEventNotifier(m.eventBus, m.logger)))
	} else {
		m.logger.Warn("event bus not set, task events will not be published")
	}
	m.service = NewService(NewRepository(db), NewAuthDirectory(m.authPort), m.logger, opts...)

	m.logger.Info("module started", "database", m.config.Database.Path, "stats_cache", m.cache != nil)
	return nil
}

// Stop closes the database.
func (m *TaskModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Error("failed to close database", "error", err)
	}
	m.logger.Info("module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TaskModule) Health(_ context.Context) mono.HealthStatus {
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
			"database":    m.config.Database.Path,
			"stats_cache": m.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListTasks, json.Unmarshal, json.Marshal, m.handleListTasks,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListTasks, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetTask, json.Unmarshal, json.Marshal, m.handleGetTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.handleCreateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.handleUpdateTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteTask, json.Unmarshal, json.Marshal, m.handleDeleteTask,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceDeleteTask, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceTaskStats, json.Unmarshal, json.Marshal, m.handleTaskStats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceTaskStats, err)
	}

	m.logger.Info("registered services", "services", []string{
		ServiceListTasks, ServiceGetTask, ServiceCreateTask,
		ServiceUpdateTask, ServiceDeleteTask, ServiceTaskStats,
	})
	return nil
}

// RegisterEventConsumers subscribes to the account changes that affect tasks.
func (m *TaskModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserDeletedV1, m.handleUserDeleted, m); err != nil {
		return fmt.Errorf("failed to register UserDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserUpdatedV1, m.handleUserUpdated, m); err != nil {
		return fmt.Errorf("failed to register UserUpdated consumer: %w", err)
	}

	m.logger.Info("registered event consumers", "events", []string{"UserDeleted", "UserUpdated"})
	return nil
}

func (m *TaskModule) handleUserDeleted(ctx context.Context, event events.UserDeletedEvent, _ *mono.Msg) error {
	if m.service == nil {
		return fmt.Errorf("task module not started")
	}
	return m.service.RemoveUser(ctx, event.UserID)
}

func (m *TaskModule) handleUserUpdated(ctx context.Context, event events.UserUpdatedEvent, _ *mono.Msg) error {
	if event.Role == event.PreviousRole {
		return nil
	}
	if m.service == nil {
		return fmt.Errorf("task module not started")
	}
	return m.service.RoleChanged(ctx, event.UserID, user.Role(event.Role))
}
