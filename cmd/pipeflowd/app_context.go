package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/scystream/control-plane/internal/api"
	"github.com/scystream/control-plane/internal/artifact"
	"github.com/scystream/control-plane/internal/blockingest"
	"github.com/scystream/control-plane/internal/configengine"
	"github.com/scystream/control-plane/internal/dagcompiler"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/store"
	"github.com/scystream/control-plane/internal/templateengine"
)

// AppContext bundles the long-lived services wired at startup, closed over
// by every cobra subcommand.
type AppContext struct {
	Logger       ports.Logger
	Events       ports.EventPublisher
	Store        *store.Store
	ConfigEngine *configengine.Engine
	Ingestor     *blockingest.Ingestor
	Templates    *templateengine.Engine
	Compiler     *dagcompiler.Compiler
	Orchestrator ports.Orchestrator
	Locator      *artifact.Locator
}

// CommandContext returns the command's context (falling back to
// Background) together with a component-scoped logger.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}

// Dependencies projects the AppContext onto the shape api.NewRouter expects.
func (a *AppContext) Dependencies() api.Dependencies {
	return api.Dependencies{
		Store:        a.Store,
		ConfigEngine: a.ConfigEngine,
		Ingestor:     a.Ingestor,
		Templates:    a.Templates,
		Compiler:     a.Compiler,
		Orchestrator: a.Orchestrator,
		Locator:      a.Locator,
		Events:       a.Events,
		Logger:       a.Logger,
	}
}
