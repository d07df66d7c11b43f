// Command pipeflowctl is a thin terminal client of the Workflow API
// Surface's per-workflow status channel: it subscribes to
// /workflow/ws/workflow_status/{project_id} and renders live block state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pipeflowctl",
		Short:         "pipeflowctl is a terminal client for the pipeline control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newStatusCmd())
	return cmd
}
