// Package cmd implements the taskmgr command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kabilangimba/team-task-management-system/config"
	"github.com/kabilangimba/team-task-management-system/database"
	"github.com/kabilangimba/team-task-management-system/modules/api"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
	"github.com/kabilangimba/team-task-management-system/modules/cache"
	"github.com/kabilangimba/team-task-management-system/modules/task"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskmgr",
	Short: "Team task management service",
	Long: `taskmgr serves a role-based task management API.

Admins and managers create and assign tasks, members work on the tasks
assigned to them. Without a subcommand taskmgr starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./taskmgr.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Path:  cfg.Database.Path,
		Debug: cfg.Database.Debug,
	}
}

func authConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Database: databaseConfig(cfg),
		JWT: auth.JWTConfig{
			SecretKey:            cfg.JWT.Secret,
			AccessTokenDuration:  cfg.JWT.AccessTTL,
			RefreshTokenDuration: cfg.JWT.RefreshTTL,
			Issuer:               cfg.JWT.Issuer,
		},
		SeedFile: cfg.SeedFile,
	}
}

func taskConfig(cfg *config.Config) task.Config {
	return task.Config{Database: databaseConfig(cfg)}
}

func cacheConfig(cfg *config.Config) cache.Config {
	return cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		Prefix:   cfg.StatsCache.Prefix,
		TTL:      cfg.StatsCache.TTL,
	}
}

func apiConfig(cfg *config.Config) api.Config {
	return api.Config{Port: cfg.HTTP.Port}
}
