package renderapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cosmos/internal/httpkit"
	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
	"cosmos/internal/ports"
	"cosmos/internal/repositories"
)

const defaultModelContentType = "model/gltf-binary"

func (h *Handler) ListRenders(w http.ResponseWriter, r *http.Request) error {
	limit, offset, err := page(r)
	if err != nil {
		return err
	}

	jobs, err := h.jobs.List(r.Context(), limit, offset)
	if err != nil {
		return errors.Wrap(err, "renders.list", "failed to list render jobs")
	}
	if jobs == nil {
		jobs = []models.RenderJob{}
	}
	httpkit.WriteJSON(w, http.StatusOK, jobs)
	return nil
}

func (h *Handler) GetRender(w http.ResponseWriter, r *http.Request) error {
	job, err := h.loadJob(r)
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, job)
	return nil
}

// DownloadRender streams the rendered model of a finished job.
func (h *Handler) DownloadRender(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	job, err := h.loadJob(r)
	if err != nil {
		return err
	}
	if job.Status != models.JobDone || job.OutputKey == "" {
		return errors.FailedPrecondition("render is not finished").
			WithField("job_id", job.ID).
			WithField("status", string(job.Status))
	}
	if h.sp == nil {
		return errors.New(errors.CodeUnavailable, "storage is not configured")
	}

	rc, contentType, size, err := h.sp.GetObject(ctx, job.OutputKey)
	if err != nil {
		if errors.Is(err, ports.ErrObjectNotFound) {
			return errors.NotFound("render output", job.ID)
		}
		return errors.Wrap(err, "renders.file", "failed to open render output")
	}
	defer rc.Close()

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultModelContentType
	}
	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.Header().Set("Content-Disposition", `attachment; filename="render-`+strconv.FormatInt(job.ID, 10)+`.glb"`)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already sent; only log.
		h.log.FromContext(ctx).WithJobID(job.ID).Warn("render download interrupted", "error", err.Error())
	}
	return nil
}

func (h *Handler) loadJob(r *http.Request) (*models.RenderJob, error) {
	id, err := pathID(chi.URLParam(r, "jobId"), "job_id")
	if err != nil {
		return nil, err
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrRenderJobNotFound) {
			return nil, errors.NotFound("render job", id)
		}
		return nil, errors.Wrap(err, "renders.get", "failed to load render job")
	}
	return job, nil
}
