package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(app *AppContext) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "pipeflowd",
		Short:         "pipeflowd is the control plane for the visual data-pipeline platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file (env vars take precedence)")

	cmd.AddCommand(newServeCmd(app, &configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
