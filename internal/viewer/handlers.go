package viewer

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/catalog"
	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/orchestrator"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/pkg/logger"
	"cosmos/internal/resource"
)

type Handler struct {
	catalog *catalog.Catalog
	orch    *orchestrator.Orchestrator
	store   *resource.Store
	log     *logger.Logger
}

type subjectsResponse struct {
	Subjects   []models.Subject `json:"subjects"`
	SelectedID *int64           `json:"selected_id"`
	TimeLabel  string           `json:"time_label"`
	LoadError  string           `json:"load_error,omitempty"`
}

type renderResponse struct {
	orchestrator.Snapshot
	ModelURL string `json:"model_url,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cosmos-viewer",
		"handles": h.store.Stats(),
	})
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, h.subjects())
}

func (h *Handler) ReloadSubjects(w http.ResponseWriter, r *http.Request) error {
	if _, err := h.catalog.Load(r.Context()); err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, h.subjects())
	return nil
}

func (h *Handler) SelectSubject(w http.ResponseWriter, r *http.Request) error {
	id, ok := httpkit.PathInt64(chi.URLParam(r, "subjectId"))
	if !ok {
		return errors.ValidationField("subjectId", "subject id must be a positive integer")
	}
	if err := h.catalog.Select(id); err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, h.subjects())
	return nil
}

// PostRender renders the selected subject. The call returns once the job is
// handed to the orchestrator; progress is read from GET /render.
func (h *Handler) PostRender(w http.ResponseWriter, r *http.Request) error {
	if err := h.orch.Submit(h.catalog.Selected()); err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusAccepted, h.render())
	return nil
}

func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) {
	httpkit.WriteJSON(w, http.StatusOK, h.render())
}

func (h *Handler) GetRenderEvents(w http.ResponseWriter, r *http.Request) error {
	since, ok := httpkit.QueryInt(r, "since", 0)
	if !ok {
		return errors.ValidationField("since", "since must be a non-negative integer")
	}
	events := h.orch.Events(int64(since))

	last := int64(since)
	if n := len(events); n > 0 {
		last = events[n-1].Seq
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"events":   events,
		"last_seq": last,
	})
	return nil
}

// GetModel serves the bytes behind a live handle. Released handles are gone.
func (h *Handler) GetModel(w http.ResponseWriter, r *http.Request) error {
	token := chi.URLParam(r, "token")
	data, contentType, ok := h.store.Open(token)
	if !ok {
		return errors.NotFound("model", token)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return nil
}

func (h *Handler) subjects() subjectsResponse {
	resp := subjectsResponse{
		Subjects:  h.catalog.Subjects(),
		TimeLabel: "select a subject",
	}
	if sel := h.catalog.Selected(); sel != nil {
		id := sel.ID
		resp.SelectedID = &id
		resp.TimeLabel = sel.TimeLabel()
	}
	if err := h.catalog.LoadError(); err != nil {
		resp.LoadError = err.Error()
	}
	return resp
}

func (h *Handler) render() renderResponse {
	snap := h.orch.Snapshot()
	resp := renderResponse{Snapshot: snap}
	if snap.Handle != nil {
		resp.ModelURL = snap.Handle.Path()
	}
	return resp
}
