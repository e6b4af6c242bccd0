package worker

import (
	"context"
	"time"

	"cosmos/internal/pkg/logger"
	"cosmos/internal/ports"
	"cosmos/internal/worker/processor"
)

// Queue is the consuming side of the render queue.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (int64, error)
}

type Deps struct {
	Jobs  processor.JobStore
	Queue Queue
	SP    ports.StorageProvider

	// RendererBaseURL selects the external renderer; empty means built-in.
	RendererBaseURL string
	StorageRoot     string
	CleanupLocal    bool

	// PopTimeout bounds each blocking queue read. Defaults to 5s.
	PopTimeout time.Duration
	Log        *logger.Logger
}
