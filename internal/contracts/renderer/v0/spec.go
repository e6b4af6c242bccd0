package v0

// RendererSpec v0 is the request body for an external renderer.
//   - job_id: render job id
//   - params: event metadata copied from the job (event_title, time_norm, ...)
//   - output: object key the renderer must write under the shared storage root
type RendererSpec struct {
	JobID  int64          `json:"job_id"`
	Params map[string]any `json:"params"`
	Output struct {
		ModelObjectKey string `json:"model_object_key"`
	} `json:"output"`
}
