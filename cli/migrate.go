package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"p9e.in/fcrm/config"
)

// MigrateCmd applies pending database migrations.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := openDB(config.Load()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("migrations applied"))
			return nil
		},
	}
}

// SeedCmd seeds permissions, roles, lookups and managers.
func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed permissions, roles and lookup tables",
		Long: `Seed the permission catalogue, the default roles (super_admin, fcm_user,
registered_user), projects, sources, feedback types and placeholder managers.

Seeding is idempotent: existing rows are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			if err := config.RunAllSeeding(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("seeding complete"))
			return nil
		},
	}
}
