package models

import "time"

// JobStatus is the lifecycle status of a render job as reported by the
// render service.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further status change is expected.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}

// RenderJob is the render service's tracked unit of work.
type RenderJob struct {
	ID        int64          `json:"id"`
	EventID   *int64         `json:"event_id,omitempty"`
	EpochID   *int64         `json:"epoch_id,omitempty"`
	TimeNorm  float64        `json:"time_norm"`
	Status    JobStatus      `json:"status"`
	Message   string         `json:"message,omitempty"`
	OutputKey string         `json:"output_path,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StatusMessage is the human readable status: the job message when present,
// the raw status otherwise.
func (j RenderJob) StatusMessage() string {
	if j.Message != "" {
		return j.Message
	}
	return string(j.Status)
}
