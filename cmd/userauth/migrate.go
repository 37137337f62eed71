package main

import (
	"github.com/authpractice/userauth/internal/setup"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	cmd.Println("Connecting to database...")
	storage, err := setup.NewStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	cmd.Println("Running migrations...")
	if err := storage.Migrate(ctx); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
