package renderapi

import (
	"context"
	"net/http"

	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/ports"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// EventStore reads the cosmic event catalog.
type EventStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Subject, error)
	Get(ctx context.Context, id int64) (*models.Subject, error)
}

// EpochStore reads epochs and their annotations.
type EpochStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Epoch, error)
	Get(ctx context.Context, id int64) (*models.Epoch, error)
	Annotations(ctx context.Context, epochID int64) ([]models.Annotation, error)
}

// ElementStore reads the element reference table.
type ElementStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Element, error)
	Get(ctx context.Context, id int64) (*models.Element, error)
}

// JobStore persists render jobs.
type JobStore interface {
	Create(ctx context.Context, job *models.RenderJob) error
	Get(ctx context.Context, id int64) (*models.RenderJob, error)
	List(ctx context.Context, limit, offset int) ([]models.RenderJob, error)
	MarkFailed(ctx context.Context, id int64, message string) error
}

// Enqueuer hands job ids to the worker.
type Enqueuer interface {
	Push(ctx context.Context, jobID int64) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	events   EventStore
	epochs   EpochStore
	elements ElementStore
	jobs     JobStore
	queue    Enqueuer
	sp       ports.StorageProvider
	db       Pinger
	redis    Pinger
	log      *logger.Logger
}

func New(d Deps, log *logger.Logger) *Handler {
	return &Handler{
		events:   d.Events,
		epochs:   d.Epochs,
		elements: d.Elements,
		jobs:     d.Jobs,
		queue:    d.Queue,
		sp:       d.Storage,
		db:       d.DB,
		redis:    d.Redis,
		log:      log,
	}
}

// page reads limit/offset, clamping limit to maxPageSize.
func page(r *http.Request) (limit, offset int, err error) {
	limit, ok := httpkit.QueryInt(r, "limit", defaultPageSize)
	if !ok {
		return 0, 0, errors.ValidationField("limit", "limit must be a non-negative integer")
	}
	offset, ok = httpkit.QueryInt(r, "offset", 0)
	if !ok {
		return 0, 0, errors.ValidationField("offset", "offset must be a non-negative integer")
	}
	if limit == 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, nil
}

func pathID(raw, field string) (int64, error) {
	id, ok := httpkit.PathInt64(raw)
	if !ok {
		return 0, errors.ValidationField(field, field+" must be a positive integer")
	}
	return id, nil
}
