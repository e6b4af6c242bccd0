package renderapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/repositories"
)

// RenderQueuedMessage is the message a freshly created job carries.
const RenderQueuedMessage = "render queued"

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) error {
	limit, offset, err := page(r)
	if err != nil {
		return err
	}

	events, err := h.events.List(r.Context(), limit, offset)
	if err != nil {
		return errors.Wrap(err, "events.list", "failed to list events")
	}
	if events == nil {
		events = []models.Subject{}
	}
	httpkit.WriteJSON(w, http.StatusOK, events)
	return nil
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) error {
	ev, err := h.loadEvent(r)
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, ev)
	return nil
}

// RenderEvent creates a queued render job for the event and hands it to
// the worker. A job that cannot be enqueued is marked failed.
func (h *Handler) RenderEvent(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	ev, err := h.loadEvent(r)
	if err != nil {
		return err
	}

	eventID := ev.ID
	job := &models.RenderJob{
		EventID:  &eventID,
		EpochID:  ev.EpochID,
		TimeNorm: ev.TimeNorm,
		Status:   models.JobQueued,
		Message:  RenderQueuedMessage,
		Params: map[string]any{
			"event_title":       ev.Title,
			"event_category":    ev.Category,
			"event_time_range":  ev.TimeRange,
			"event_description": ev.Description,
		},
	}
	if err := h.jobs.Create(ctx, job); err != nil {
		return errors.Wrap(err, "renders.create", "failed to create render job")
	}

	log := h.log.FromContext(ctx).WithJobID(job.ID)

	if err := h.queue.Push(ctx, job.ID); err != nil {
		log.Error("enqueue failed", "error", err.Error())
		if markErr := h.jobs.MarkFailed(ctx, job.ID, "enqueue failed: "+err.Error()); markErr != nil {
			log.Error("failed to mark job failed", "error", markErr.Error())
		}
		return errors.WrapWithCode(err, errors.CodeUnavailable, "renders.enqueue", "render queue unavailable").
			WithField("job_id", job.ID)
	}

	log.Info("render queued", "event_id", eventID)
	httpkit.WriteJSON(w, http.StatusCreated, job)
	return nil
}

func (h *Handler) loadEvent(r *http.Request) (*models.Subject, error) {
	id, err := pathID(chi.URLParam(r, "eventId"), "event_id")
	if err != nil {
		return nil, err
	}
	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, errors.NotFound("event", id)
		}
		return nil, errors.Wrap(err, "events.get", "failed to load event")
	}
	return ev, nil
}
