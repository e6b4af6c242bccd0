package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cosmos/internal/config"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/otel"
	"cosmos/internal/pkg/shutdown"
	"cosmos/internal/queue"
	"cosmos/internal/renderapi"
	"cosmos/internal/repositories"
	"cosmos/internal/storage"
)

const serviceName = "cosmos-api"

func main() {
	cfg, err := config.LoadAPI()
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

	log.Info("starting cosmos API",
		"version", "0.1.0",
	)

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	// Tracing
	traceShutdown, err := otel.Setup(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.LogFatal("failed to set up tracing", err)
	}
	shutdownMgr.Register("tracing", traceShutdown)

	// PostgreSQL
	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	log.Info("PostgreSQL connected")

	applied, err := repositories.Migrate(ctx, pool)
	if err != nil {
		log.LogFatal("failed to apply migrations", err)
	}
	log.Info("migrations applied", "count", len(applied), "names", applied)

	// Redis
	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	q := queue.NewRedisQueue(rdb, cfg.QueueName)
	if err := q.Ping(ctx); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected", "queue", q.Name())

	// Storage
	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	router := renderapi.NewRouter(renderapi.Deps{
		Events:         repositories.NewEventRepository(pool),
		Epochs:         repositories.NewEpochRepository(pool),
		Elements:       repositories.NewElementRepository(pool),
		Jobs:           repositories.NewRenderJobRepository(pool),
		Queue:          q,
		Storage:        sp,
		DB:             pool,
		Redis:          q,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening",
			"addr", server.Addr,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogFatal("HTTP server failed", err)
		}
	}()

	shutdownMgr.Wait()
}
