// Package renderapi is the HTTP surface of the reference render service:
// the cosmic event catalog with its epochs and elements, render job
// submission, job status and the rendered asset download.
package renderapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/httpkit"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/middleware"
	"cosmos/internal/ports"
)

type Deps struct {
	Events   EventStore
	Epochs   EpochStore
	Elements ElementStore
	Jobs     JobStore
	Queue    Enqueuer
	Storage  ports.StorageProvider

	// Checked by GET /health?deep=true; nil checks are skipped.
	DB    Pinger
	Redis Pinger

	Log            *logger.Logger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("renderapi")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: origins,
		ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
	}))

	h := New(d, log)

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- EVENTS ----
	r.Get("/events", middleware.WrapHandler(log, h.ListEvents))
	r.Get("/events/{eventId}", middleware.WrapHandler(log, h.GetEvent))
	r.Post("/events/{eventId}/render", middleware.WrapHandler(log, h.RenderEvent))

	// ---- EPOCHS ----
	r.Get("/epochs", middleware.WrapHandler(log, h.ListEpochs))
	r.Get("/epochs/{epochId}", middleware.WrapHandler(log, h.GetEpoch))
	r.Get("/epochs/{epochId}/annotations", middleware.WrapHandler(log, h.ListAnnotations))

	// ---- ELEMENTS ----
	r.Get("/elements", middleware.WrapHandler(log, h.ListElements))
	r.Get("/elements/{elementId}", middleware.WrapHandler(log, h.GetElement))

	// ---- RENDERS ----
	r.Get("/renders", middleware.WrapHandler(log, h.ListRenders))
	r.Get("/renders/{jobId}", middleware.WrapHandler(log, h.GetRender))
	r.Get("/renders/{jobId}/file", middleware.WrapHandler(log, h.DownloadRender))

	return r
}
