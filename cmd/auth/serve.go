package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/tabauth/internal/auth/app"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Apply pending migrations, then serve until SIGINT or SIGTERM. Shutdown
drains in-flight requests before stopping the hash pool and the store.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return oops.Code("STARTUP_FAILED").With("operation", "initialize application").Wrap(err)
	}

	return application.Run()
}
