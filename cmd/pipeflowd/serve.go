package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scystream/control-plane/internal/api"
	"github.com/scystream/control-plane/internal/appconfig"
	"github.com/scystream/control-plane/internal/artifact"
	"github.com/scystream/control-plane/internal/blockingest"
	"github.com/scystream/control-plane/internal/configengine"
	"github.com/scystream/control-plane/internal/dagcompiler"
	"github.com/scystream/control-plane/internal/defaultconfig"
	"github.com/scystream/control-plane/internal/manifestloader"
	"github.com/scystream/control-plane/internal/orchestrator"
	"github.com/scystream/control-plane/internal/ports"
	"github.com/scystream/control-plane/internal/store"
	"github.com/scystream/control-plane/internal/templateengine"
)

func newServeCmd(app *AppContext, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Workflow API Surface (REST + WebSocket status channels)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, logger := app.CommandContext(cmd, "command.serve")
			return runServe(ctx, app, logger, *configPath)
		},
	}
}

func runServe(ctx context.Context, app *AppContext, logger ports.Logger, configPath string) error {
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	defaultconfig.MustValidateDescriptors()
	defaults := defaultconfig.NewProvider(cfg.DefaultConfigSettings())

	graphStore, err := store.New(ctx, cfg.PostgresDSN, defaults, app.Logger.With("component", "store"))
	if err != nil {
		return fmt.Errorf("connect to graph store: %w", err)
	}
	defer graphStore.Close()
	app.Store = graphStore

	manifests := manifestloader.New(cfg.ManifestCloneTimeout, "")

	app.ConfigEngine = configengine.New(graphStore, defaults, app.Logger.With("component", "configengine"))
	app.Ingestor = blockingest.New(manifests, graphStore, defaults, app.Logger.With("component", "blockingest"))
	app.Templates = templateengine.New(manifests, graphStore, defaults, app.Logger.With("component", "templateengine"))
	app.Compiler = dagcompiler.New(graphStore, cfg.DAGOutputDir, app.Logger.With("component", "dagcompiler"))
	app.Orchestrator = orchestrator.New(
		cfg.OrchestratorBaseURL, cfg.OrchestratorUser, cfg.OrchestratorPassword,
		cfg.OrchestratorTimeout, cfg.RegistrationTimeout, cfg.RegistrationInterval,
		cfg.DAGOutputDir, app.Logger.With("component", "orchestrator"),
	)
	app.Locator = artifact.New(graphStore, artifact.NewMinioObjectStore(), defaults,
		cfg.ObjectStoreEndpoint, cfg.ObjectStoreExternalHost, cfg.PresignedURLTTL)

	router := api.NewRouter(app.Dependencies())

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "serving", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutting down")
		return srv.Shutdown(context.Background())
	}
}
