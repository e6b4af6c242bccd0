// Package worker consumes the render queue and runs each job through the
// processor.
package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"cosmos/internal/pkg/logger"
	"cosmos/internal/worker/processor"
	"cosmos/internal/worker/renderer"
)

const defaultPopTimeout = 5 * time.Second

func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	var rc renderer.Client
	if d.RendererBaseURL != "" {
		rc = renderer.NewHTTPClient(d.RendererBaseURL)
	}

	p := processor.New(processor.Deps{
		Jobs:         d.Jobs,
		Renderer:     rc,
		StorageRoot:  d.StorageRoot,
		CleanupLocal: d.CleanupLocal,
		SP:           d.SP,
		Log:          log,
	})

	popTimeout := d.PopTimeout
	if popTimeout <= 0 {
		popTimeout = defaultPopTimeout
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second

	log.Info("worker started", "external_renderer", rc != nil, "storage", d.SP.Provider())

	for {
		if ctx.Err() != nil {
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		}

		jobID, err := d.Queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			wait := bo.NextBackOff()
			log.Warn("queue pop error, retrying",
				"error", err.Error(),
				"backoff_ms", wait.Milliseconds(),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		if jobID == 0 {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)

		jobLog.Info("processing job")
		startTime := time.Now()

		if err := p.ProcessJob(jobCtx, jobID); err != nil {
			jobLog.Error("job failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("job completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}
