// Package processor executes one queued render job end to end.
package processor

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/otel"
	"cosmos/internal/ports"
	"cosmos/internal/repositories"
	"cosmos/internal/worker/renderer"
)

// Status messages stored on the job.
const (
	MsgPreparing = "preparing render"
	MsgComplete  = "render complete"
)

// JobStore is the slice of the render job repository the worker needs.
type JobStore interface {
	Get(ctx context.Context, id int64) (*models.RenderJob, error)
	MarkProcessing(ctx context.Context, id int64, message string) error
	MarkDone(ctx context.Context, id int64, message, outputKey string) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

type Deps struct {
	Jobs JobStore
	// Renderer is optional; without it the built-in GLB renderer runs.
	Renderer     renderer.Client
	StorageRoot  string
	CleanupLocal bool
	SP           ports.StorageProvider
	Log          *logger.Logger
}

type Processor struct {
	jobs JobStore
	log  *logger.Logger

	rendererAdapter *RendererAdapter
	outputHandler   *OutputHandler
	cleanup         *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("processor")

	return &Processor{
		jobs:            d.Jobs,
		log:             log,
		rendererAdapter: NewRendererAdapter(d.Renderer, d.StorageRoot),
		outputHandler:   NewOutputHandler(d.SP, d.StorageRoot, d.CleanupLocal),
		cleanup:         NewCleanup(d.StorageRoot, d.CleanupLocal, d.SP),
	}
}

// ProcessJob runs the job through render and publish and records the
// outcome on the job row.
func (p *Processor) ProcessJob(ctx context.Context, jobID int64) (err error) {
	ctx, span := otel.Tracer("cosmos/worker").Start(ctx, "render.job",
		trace.WithAttributes(attribute.Int64("job.id", jobID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx)

	// 1. Load and parse
	log.Debug("loading job")
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrRenderJobNotFound) {
			return errors.NotFound("render job", jobID)
		}
		return errors.Wrap(err, "processor.fetch", "failed to load job")
	}
	if job.Status.Terminal() {
		log.Warn("skipping settled job", "status", string(job.Status))
		return nil
	}

	parsed, err := ParseJob(job)
	if err != nil {
		return p.failJob(ctx, jobID, errors.WrapWithCode(err, errors.CodeValidation, "processor.parse", "invalid job params"))
	}
	span.SetAttributes(
		attribute.Int64("event.id", parsed.EventID),
		attribute.Float64("event.time_norm", parsed.TimeNorm),
	)

	// 2. Mark processing
	if err := p.jobs.MarkProcessing(ctx, jobID, MsgPreparing); err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.status", "failed to mark job as processing"))
	}

	// 3. Render
	outputKey := OutputKey(jobID)
	log.Info("starting render", "output_key", outputKey, "external", p.rendererAdapter.client != nil)
	err = p.rendererAdapter.Render(ctx, RenderRequest{
		JobID:     jobID,
		ParsedJob: parsed,
		OutputKey: outputKey,
	})
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.render", "render failed"))
	}

	// 4. Publish
	storedKey, err := p.outputHandler.Publish(ctx, outputKey)
	if err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.outputs", "failed to publish model"))
	}
	log.Debug("model published", "object_key", storedKey)

	p.cleanup.CleanupJob(jobID)

	// 5. Done
	if err := p.jobs.MarkDone(ctx, jobID, MsgComplete, storedKey); err != nil {
		return p.failJob(ctx, jobID, errors.Wrap(err, "processor.status", "failed to mark job as done"))
	}
	return nil
}

func (p *Processor) failJob(ctx context.Context, jobID int64, cause error) error {
	log := p.log.FromContext(ctx)

	msg := repositories.Truncate(cause.Error(), repositories.MaxMessageLen)

	var ce *errors.Error
	if errors.As(cause, &ce) {
		log.Error("job failed",
			"code", string(ce.Code),
			"op", ce.Op,
			"message", ce.Message,
		)
	} else {
		log.Error("job failed", "error", msg)
	}

	// Record the failure even when the job context was canceled.
	if err := p.jobs.MarkFailed(context.WithoutCancel(ctx), jobID, msg); err != nil {
		log.Error("failed to mark job failed", "error", err.Error())
	}
	return cause
}
