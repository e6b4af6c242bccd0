package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"cosmos/internal/catalog"
	"cosmos/internal/config"
	"cosmos/internal/orchestrator"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/otel"
	"cosmos/internal/pkg/shutdown"
	"cosmos/internal/remotejob"
	"cosmos/internal/resource"
	"cosmos/internal/viewer"
)

const serviceName = "cosmos-viewer"

func main() {
	cfg, err := config.LoadViewer()
	if err != nil {
		logger.NewDefault().LogFatal("invalid configuration", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: serviceName,
		AddSource:   cfg.Log.Source,
		Output:      os.Stdout,
	})

	log.Info("starting cosmos viewer",
		"api_base", cfg.APIBase,
		"poll_interval", cfg.PollInterval.String(),
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 10*time.Second)

	traceShutdown, err := otel.Setup(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.LogFatal("failed to set up tracing", err)
	}
	shutdownMgr.Register("tracing", traceShutdown)

	client := remotejob.NewHTTPClient(cfg.APIBase,
		remotejob.WithTimeout(cfg.RequestTimeout),
		remotejob.WithMaxAssetBytes(cfg.MaxAssetBytes),
	)

	// The probe is informational; the viewer runs without the service.
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if status, err := client.Health(probeCtx); err != nil {
		log.Warn("render service unreachable", "api_base", client.BaseURL(), "error", err.Error())
	} else {
		log.Info("render service reachable", "status", status)
	}
	cancel()

	cat := catalog.New(client, log)
	loadCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if subjects, err := cat.Load(loadCtx); err != nil {
		log.Warn("catalog unavailable", "error", err.Error())
	} else {
		log.Info("catalog loaded", "subjects", len(subjects))
	}
	cancel()

	store := resource.NewStore()
	orch := orchestrator.New(orchestrator.Config{PollInterval: cfg.PollInterval}, client, store, log)

	router := viewer.NewRouter(viewer.Deps{
		Catalog:        cat,
		Orchestrator:   orch,
		Store:          store,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Last registered runs first: the orchestrator stops before the server.
	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})
	shutdownMgr.Register("orchestrator", func(ctx context.Context) error {
		err := orch.Close(ctx)
		stats := store.Stats()
		log.Info("orchestrator closed",
			"acquired", stats.Acquired,
			"released", stats.Released,
			"live", stats.Live,
		)
		return err
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("viewer gateway listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		shutdownMgr.WaitWithContext(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.LogFatal("viewer gateway failed", err)
	}
}
