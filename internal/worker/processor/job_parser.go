package processor

import (
	"fmt"
	"math"
	"strings"

	"cosmos/internal/models"
	"cosmos/internal/worker/glb"
)

// Params keys written by the API when it queues a render.
const (
	ParamEventTitle       = "event_title"
	ParamEventCategory    = "event_category"
	ParamEventTimeRange   = "event_time_range"
	ParamEventDescription = "event_description"
)

type ParsedJob struct {
	JobID       int64
	EventID     int64
	Title       string
	Category    string
	TimeRange   string
	Description string
	TimeNorm    float64
	Params      map[string]any
}

// Scene maps the job onto the built-in renderer's input.
func (j *ParsedJob) Scene() glb.Scene {
	return glb.Scene{
		EventID:     j.EventID,
		Title:       j.Title,
		Category:    j.Category,
		TimeRange:   j.TimeRange,
		Description: j.Description,
		TimeNorm:    j.TimeNorm,
	}
}

// RendererParams is the params block sent to an external renderer.
func (j *ParsedJob) RendererParams() map[string]any {
	out := make(map[string]any, len(j.Params)+2)
	for k, v := range j.Params {
		out[k] = v
	}
	out["time_norm"] = j.TimeNorm
	if j.EventID != 0 {
		out["event_id"] = j.EventID
	}
	return out
}

// ParseJob validates a stored job and extracts its render inputs.
func ParseJob(job *models.RenderJob) (*ParsedJob, error) {
	if job == nil {
		return nil, fmt.Errorf("job is nil")
	}
	if math.IsNaN(job.TimeNorm) || job.TimeNorm < 0 || job.TimeNorm > 1 {
		return nil, fmt.Errorf("time_norm %v is outside [0, 1]", job.TimeNorm)
	}

	j := &ParsedJob{
		JobID:    job.ID,
		TimeNorm: job.TimeNorm,
		Params:   make(map[string]any, len(job.Params)),
	}
	if job.EventID != nil {
		j.EventID = *job.EventID
	}
	for k, v := range job.Params {
		j.Params[k] = v
	}

	var err error
	if j.Title, err = stringParam(job.Params, ParamEventTitle); err != nil {
		return nil, err
	}
	if strings.TrimSpace(j.Title) == "" {
		return nil, fmt.Errorf("params.%s is required", ParamEventTitle)
	}
	if j.Category, err = stringParam(job.Params, ParamEventCategory); err != nil {
		return nil, err
	}
	if j.TimeRange, err = stringParam(job.Params, ParamEventTimeRange); err != nil {
		return nil, err
	}
	if j.Description, err = stringParam(job.Params, ParamEventDescription); err != nil {
		return nil, err
	}
	return j, nil
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("params.%s must be a string, got %T", key, v)
	}
	return strings.TrimSpace(s), nil
}
