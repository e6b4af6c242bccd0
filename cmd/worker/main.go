package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"cosmos/internal/config"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/otel"
	"cosmos/internal/pkg/shutdown"
	"cosmos/internal/queue"
	"cosmos/internal/repositories"
	"cosmos/internal/storage"
	"cosmos/internal/worker"
)

const serviceName = "cosmos-worker"

func main() {
	cfg, err := config.LoadWorker()
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	traceShutdown, err := otel.Setup(ctx, serviceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.LogFatal("failed to set up tracing", err)
	}
	shutdownMgr.Register("tracing", traceShutdown)

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	sp, err := storage.NewProvider(ctx, cfg.Storage)
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	done := make(chan struct{})
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		cancel()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		defer close(done)
		err := worker.Run(ctx, worker.Deps{
			Jobs:            repositories.NewRenderJobRepository(pool),
			Queue:           queue.NewRedisQueue(rdb, cfg.QueueName),
			SP:              sp,
			RendererBaseURL: cfg.RendererBaseURL,
			StorageRoot:     cfg.Storage.LocalRoot,
			CleanupLocal:    cfg.Storage.CleanupLocal,
			Log:             log,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "error", err.Error())
		}
	}()

	shutdownMgr.Wait()
}
