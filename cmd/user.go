package cmd

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/spf13/cobra"

	domain "github.com/kabilangimba/team-task-management-system/domain/user"
	"github.com/kabilangimba/team-task-management-system/modules/auth"
)

var (
	userEmail    string
	userPassword string
	userName     string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with any role",
	Long: `Create an account directly in the user database.

This is how the first admin is bootstrapped: self-registration over HTTP
always yields a member, and only admins may create accounts with other roles.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		role, err := domain.ParseRole(userRole)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := mono.NewMonoApplication(
			mono.WithLogLevel(mono.LogLevelError),
			mono.WithLogFormat(mono.LogFormatText),
		)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		ctx := context.Background()
		authModule := auth.NewModule(authConfig(cfg), app.Logger())
		if err := authModule.Start(ctx); err != nil {
			return fmt.Errorf("opening user database: %w", err)
		}
		defer authModule.Stop(ctx)

		u, err := authModule.Service().Bootstrap(ctx, auth.NewUser{
			Email:    userEmail,
			Password: userPassword,
			Name:     userName,
			Role:     role,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", u.Role, u.Email, u.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address (required)")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password, at least 8 characters (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(domain.RoleMember), "admin, manager or member")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
