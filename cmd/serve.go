package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/spf13/cobra"

	"github.com/kabilangimba/team-task-management-system/config"
	"github.com/kabilangimba/team-task-management-system/middleware/servicelog"
	"github.com/kabilangimba/team-task-management-system/modules/api"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
	"github.com/kabilangimba/team-task-management-system/modules/cache"
	"github.com/kabilangimba/team-task-management-system/modules/notification"
	"github.com/kabilangimba/team-task-management-system/modules/task"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Println("=== Team Task Management ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if err := registerModules(app, cfg); err != nil {
		return err
	}

	if err := app.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}

// registry is the part of the mono application used to assemble the service.
type registry interface {
	Register(module mono.Module) error
	RegisterPlugin(plugin mono.PluginModule, alias string) error
	Logger() types.Logger
}

// registerModules registers the optional cache plugin and every module.
// Order: plugins first, then independent modules, then modules with dependencies.
func registerModules(app registry, cfg *config.Config) error {
	logger := app.Logger()

	if cfg.CacheEnabled() {
		if err := app.RegisterPlugin(cache.NewPluginModule(cacheConfig(cfg), logger), "cache"); err != nil {
			return fmt.Errorf("failed to register cache plugin: %w", err)
		}
	}

	modules := []mono.Module{
		servicelog.New(cfg.Log.SlowServiceThreshold, logger),        // middleware first
		auth.NewModule(authConfig(cfg), logger),                     // users and tokens
		notification.NewModule(cfg.Notifications.InboxSize, logger), // consumes task events
		task.NewModule(taskConfig(cfg), logger),                     // depends on auth
		api.NewModule(apiConfig(cfg), logger),                       // HTTP API
	}
	for _, m := range modules {
		if err := app.Register(m); err != nil {
			return fmt.Errorf("failed to register %s module: %w", m.Name(), err)
		}
	}
	return nil
}

func printStartupInfo(cfg *config.Config) {
	base := fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port)

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Database: %s", cfg.Database.Path)
	if cfg.CacheEnabled() {
		log.Printf("Stats cache: redis %s (ttl %s)", cfg.Redis.Addr, cfg.StatsCache.TTL)
	} else {
		log.Println("Stats cache: disabled (set redis.addr to enable)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (%s):", base)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register  - Register a member account")
	log.Println("  POST   /api/v1/auth/login     - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh   - Refresh access token")
	log.Println("  GET    /health                - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/users/me       - Current user")
	log.Println("  GET    /api/v1/users          - List users (admin, manager)")
	log.Println("  POST   /api/v1/users          - Create user with role (admin)")
	log.Println("  GET    /api/v1/tasks          - List visible tasks (?status=&assignee=)")
	log.Println("  POST   /api/v1/tasks          - Create task (admin, manager)")
	log.Println("  GET    /api/v1/tasks/stats    - Task counts by status")
	log.Println("  GET    /api/v1/tasks/:id      - Get task")
	log.Println("  PUT    /api/v1/tasks/:id      - Update task")
	log.Println("  PATCH  /api/v1/tasks/:id      - Partially update task")
	log.Println("  DELETE /api/v1/tasks/:id      - Delete task")
	log.Println("  GET    /api/v1/notifications  - Your notifications")
	log.Println("")
	log.Println("Bootstrap an admin with: taskmgr user create --role admin --email ... --password ...")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
