package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scystream/control-plane/internal/appconfig"
	"github.com/scystream/control-plane/internal/store"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Graph Store schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := store.Migrate(cfg.PostgresDSN); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
