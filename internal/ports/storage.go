package ports

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when an object key does not resolve.
var ErrObjectNotFound = errors.New("object not found")

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// localfs returns the same object key; gdrive returns the Drive file id,
	// which is what later reads and deletes must use.
	ObjectKey string
	Size      int64
}

// StorageProvider stores rendered assets (localfs, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error
}
