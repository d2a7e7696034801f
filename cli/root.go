package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"p9e.in/fcrm/config"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = ""
)

// RootCmd builds the fcrm command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "fcrm",
		Short:   "FCRM - feedback and complaint response management",
		Version: Version,
		Long: `fcrm runs the complaint management API and its maintenance tasks.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(MigrateCmd())
	rootCmd.AddCommand(SeedCmd())
	rootCmd.AddCommand(CreateUserCmd())
	rootCmd.AddCommand(VersionCmd())
	return rootCmd
}

// VersionCmd prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version:   %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "BuildTime: %s\n", BuildTime)
		},
	}
}

// openDB opens and migrates the configured database. Maintenance commands only
// need DB_DSN.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if err := config.Connect(cfg); err != nil {
		return nil, err
	}
	return config.DB, nil
}

func success(format string, a ...interface{}) string {
	return color.New(color.FgGreen).Sprintf("✓ "+format, a...)
}
