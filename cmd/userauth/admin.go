package main

import (
	"context"
	"fmt"

	"github.com/authpractice/userauth/internal/domain"
	"github.com/authpractice/userauth/internal/setup"
	"github.com/spf13/cobra"
)

// AdminSetter flips the admin flag of an existing user.
type AdminSetter interface {
	SetAdmin(ctx context.Context, email domain.Email, admin bool) error
}

// NewAdminCmd creates the admin subcommand. The web surface never grants
// admin rights, so this is the supported way to do it.
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Grant or revoke admin rights",
	}
	cmd.AddCommand(newAdminSetCmd("grant", "Give a user admin rights", true))
	cmd.AddCommand(newAdminSetCmd("revoke", "Take admin rights away from a user", false))
	return cmd
}

func newAdminSetCmd(use, short string, admin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			storage, err := setup.NewStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer storage.Cleanup()

			return setAdmin(cmd, storage, args[0], admin)
		},
	}
}

func setAdmin(cmd *cobra.Command, users AdminSetter, email string, admin bool) error {
	if err := users.SetAdmin(cmd.Context(), email, admin); err != nil {
		return fmt.Errorf("failed to update %s: %w", email, err)
	}
	if admin {
		cmd.Printf("%s is now an admin\n", email)
	} else {
		cmd.Printf("%s is no longer an admin\n", email)
	}
	return nil
}
