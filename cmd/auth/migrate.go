package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tabauth/internal/auth/app"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending migrations against the configured database and exit.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	cmd.Println("Connecting to database...")
	st, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.DBDriver).Wrap(err)
	}
	defer st.Close()

	cmd.Println("Running migrations...")
	if err := st.ApplyMigrations(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
