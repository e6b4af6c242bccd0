package processor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"cosmos/internal/ports"
)

// Cleanup removes per-job scratch directories once a remote provider holds
// the output.
type Cleanup struct {
	storageRoot  string
	cleanupLocal bool
	sp           ports.StorageProvider
}

func NewCleanup(storageRoot string, cleanupLocal bool, sp ports.StorageProvider) *Cleanup {
	return &Cleanup{
		storageRoot:  storageRoot,
		cleanupLocal: cleanupLocal,
		sp:           sp,
	}
}

// CleanupJob removes renders/{jobID} when it is empty. It reports whether
// the directory is gone.
func (c *Cleanup) CleanupJob(jobID int64) bool {
	if !c.shouldCleanup() {
		return false
	}

	jobDir := filepath.Join(c.storageRoot, filepath.FromSlash(JobDir(jobID)))
	// A non-empty directory (e.g. renderer logs) is left alone.
	err := os.Remove(jobDir)
	return err == nil || errors.Is(err, fs.ErrNotExist)
}

func (c *Cleanup) shouldCleanup() bool {
	return c.cleanupLocal && c.sp.Provider() != "localfs"
}
