package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cosmos/internal/ports"
)

const modelContentType = "model/gltf-binary"

// OutputHandler publishes a rendered model to the configured storage.
type OutputHandler struct {
	sp           ports.StorageProvider
	storageRoot  string
	cleanupLocal bool
}

func NewOutputHandler(sp ports.StorageProvider, storageRoot string, cleanupLocal bool) *OutputHandler {
	return &OutputHandler{
		sp:           sp,
		storageRoot:  storageRoot,
		cleanupLocal: cleanupLocal,
	}
}

// Publish makes the model at objectKey readable through the storage
// provider and returns the key the API must use to read it back.
// localfs already holds the file in place; other providers get an upload.
func (oh *OutputHandler) Publish(ctx context.Context, objectKey string) (string, error) {
	localPath := filepath.Join(oh.storageRoot, filepath.FromSlash(objectKey))
	st, err := os.Stat(localPath)
	if err != nil {
		return "", fmt.Errorf("model file not found: %w", err)
	}

	if oh.sp.Provider() == "localfs" {
		return objectKey, nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	out, err := oh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: modelContentType,
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload model: %w", err)
	}

	oh.maybeCleanupFile(localPath)
	return out.ObjectKey, nil
}

func (oh *OutputHandler) maybeCleanupFile(localPath string) {
	if !oh.cleanupLocal {
		return
	}
	_ = os.Remove(localPath)
}
