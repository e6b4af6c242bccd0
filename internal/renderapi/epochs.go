package renderapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/repositories"
)

func (h *Handler) ListEpochs(w http.ResponseWriter, r *http.Request) error {
	limit, offset, err := page(r)
	if err != nil {
		return err
	}

	epochs, err := h.epochs.List(r.Context(), limit, offset)
	if err != nil {
		return errors.Wrap(err, "epochs.list", "failed to list epochs")
	}
	if epochs == nil {
		epochs = []models.Epoch{}
	}
	httpkit.WriteJSON(w, http.StatusOK, epochs)
	return nil
}

// GetEpoch returns the epoch with its annotations.
func (h *Handler) GetEpoch(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(chi.URLParam(r, "epochId"), "epoch_id")
	if err != nil {
		return err
	}

	epoch, err := h.epochs.Get(r.Context(), id)
	if err != nil {
		return epochErr(err, id, "epochs.get", "failed to load epoch")
	}
	notes, err := h.epochs.Annotations(r.Context(), id)
	if err != nil {
		return epochErr(err, id, "epochs.annotations", "failed to load annotations")
	}
	if notes == nil {
		notes = []models.Annotation{}
	}

	httpkit.WriteJSON(w, http.StatusOK, models.EpochDetail{Epoch: *epoch, Annotations: notes})
	return nil
}

func (h *Handler) ListAnnotations(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(chi.URLParam(r, "epochId"), "epoch_id")
	if err != nil {
		return err
	}

	notes, err := h.epochs.Annotations(r.Context(), id)
	if err != nil {
		return epochErr(err, id, "epochs.annotations", "failed to load annotations")
	}
	if notes == nil {
		notes = []models.Annotation{}
	}
	httpkit.WriteJSON(w, http.StatusOK, notes)
	return nil
}

func epochErr(err error, id int64, op, msg string) error {
	if errors.Is(err, repositories.ErrEpochNotFound) {
		return errors.NotFound("epoch", id)
	}
	return errors.Wrap(err, op, msg)
}
