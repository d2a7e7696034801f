package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"p9e.in/fcrm/config"
	"p9e.in/fcrm/models"
)

// CreateUserCmd creates an account from the command line, typically the first super admin.
func CreateUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user with the given role.

Usage:
  fcrm create-user --name "Admin" --email admin@example.org --password secret --role super_admin`,
		RunE: runCreateUser,
	}

	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Initial password")
	cmd.Flags().String("role", models.RoleRegisteredUser, "Role name")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")

	db, err := openDB(config.Load())
	if err != nil {
		return err
	}
	if err := config.SeedPermissions(db); err != nil {
		return err
	}

	u, err := config.CreateUser(db, name, email, password, role)
	if err != nil {
		return fmt.Errorf("%s %w", color.New(color.FgRed).Sprint("create user failed:"), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), success("created %s <%s> with role %s", u.Name, u.Email, u.RoleName()))
	return nil
}
