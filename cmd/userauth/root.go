package main

import (
	"github.com/authpractice/userauth/internal/config"
	"github.com/authpractice/userauth/internal/logger"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFolder string

// NewRootCmd creates the root command for the userauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userauth",
		Short: "Username/password authentication web app",
		Long: `userauth serves signup, login and session-protected pages backed by
PostgreSQL for users and Redis (or memory) for sessions.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFolder, "config", "config", "folder with public.yaml and private.yaml")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewAdminCmd())

	return cmd
}

// loadConfig reads the config folder and applies the logging settings.
func loadConfig() *config.Config {
	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)
	return cfg
}
