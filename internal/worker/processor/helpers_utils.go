package processor

import "fmt"

// ModelFileName is the object name of every rendered model.
const ModelFileName = "model.glb"

// OutputKey is the object key a job's model is written to.
func OutputKey(jobID int64) string {
	return fmt.Sprintf("%s/%s", JobDir(jobID), ModelFileName)
}

// JobDir is the per-job directory under the storage root.
func JobDir(jobID int64) string {
	return fmt.Sprintf("renders/%d", jobID)
}
