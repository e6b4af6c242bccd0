// Package viewer is the local HTTP gateway of the client process. It exposes
// the catalog, the orchestrator state and the bytes behind the live resource
// handle to the 3D viewer front end.
package viewer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/catalog"
	"cosmos/internal/httpkit"
	"cosmos/internal/orchestrator"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/pkg/middleware"
	"cosmos/internal/resource"
)

type Deps struct {
	Catalog        *catalog.Catalog
	Orchestrator   *orchestrator.Orchestrator
	Store          *resource.Store
	Log            *logger.Logger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("viewer")

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
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	h := &Handler{
		catalog: d.Catalog,
		orch:    d.Orchestrator,
		store:   d.Store,
		log:     log,
	}

	r.Get("/health", h.Health)

	// ---- SUBJECTS ----
	r.Get("/subjects", h.ListSubjects)
	r.Post("/subjects/reload", middleware.WrapHandler(log, h.ReloadSubjects))
	r.Post("/subjects/{subjectId}/select", middleware.WrapHandler(log, h.SelectSubject))

	// ---- RENDER ----
	r.Post("/render", middleware.WrapHandler(log, h.PostRender))
	r.Get("/render", h.GetRender)
	r.Get("/render/events", middleware.WrapHandler(log, h.GetRenderEvents))

	// ---- MODELS ----
	r.Get("/models/{token}", middleware.WrapHandler(log, h.GetModel))

	return r
}
