// Command pipeflowd runs the pipeline control plane: the Workflow API
// Surface over HTTP/WebSocket, backed by the Graph Store, Configuration
// Engine, Template Engine, DAG Compiler, Orchestrator Adapter, and
// Artifact Locator. Startup wiring itself is intentionally thin.
package main

import (
	"fmt"
	"os"

	"github.com/scystream/control-plane/internal/events"
	"github.com/scystream/control-plane/internal/logging"
)

func main() {
	logger, err := logging.New(logging.Options{Level: "info", Component: "pipeflowd"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := &AppContext{
		Logger: logger,
		Events: events.NewLoggingPublisher(logger.With("component", "events")),
	}

	rootCmd := newRootCmd(app)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
