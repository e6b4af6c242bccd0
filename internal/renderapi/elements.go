package renderapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/repositories"
)

func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) error {
	limit, offset, err := page(r)
	if err != nil {
		return err
	}

	elements, err := h.elements.List(r.Context(), limit, offset)
	if err != nil {
		return errors.Wrap(err, "elements.list", "failed to list elements")
	}
	if elements == nil {
		elements = []models.Element{}
	}
	httpkit.WriteJSON(w, http.StatusOK, elements)
	return nil
}

func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(chi.URLParam(r, "elementId"), "element_id")
	if err != nil {
		return err
	}

	el, err := h.elements.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrElementNotFound) {
			return errors.NotFound("element", id)
		}
		return errors.Wrap(err, "elements.get", "failed to load element")
	}
	httpkit.WriteJSON(w, http.StatusOK, el)
	return nil
}
