// Package storage provides the object storage abstraction used for archive
// media: ranged reads for seekable playback, writes for originals and derived
// thumbnails, and presigned URLs where the backend supports them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the requested object key does not exist.
	ErrNotFound = errors.New("storage: object not found")

	// ErrUnsupported is returned by backends that cannot provide an
	// operation (e.g. presigned URLs on the local filesystem).
	ErrUnsupported = errors.New("storage: operation not supported by backend")

	// ErrInvalidRange is returned when a range request lies wholly outside
	// the object's extent or cannot be parsed.
	ErrInvalidRange = errors.New("storage: invalid range")
)

// ObjectStream is the result of a read. ContentRange is non-empty only when
// the read was partial, in which case ContentLength is the slice length.
type ObjectStream struct {
	Body          io.ReadCloser
	ContentLength int64
	ContentRange  string
	ContentType   string
}

// Store is the capability set every storage backend implements. The backend
// is selected once at process start; request-handling code never branches on
// backend identity.
type Store interface {
	// Read returns the object at key, optionally sliced by an HTTP range
	// header ("bytes=start-end"). A missing object yields ErrNotFound.
	Read(ctx context.Context, key string, rangeHeader string) (*ObjectStream, error)

	// Write stores data under key and returns the key.
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Delete removes the object at key. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, key string) error

	// PresignedGetURL returns a time-limited URL for direct download.
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// PresignedPutURL returns a time-limited URL for direct client upload.
	PresignedPutURL(ctx context.Context, key string, contentType string, expiry time.Duration) (string, error)

	// EnsureBucket verifies the backing bucket or directory exists,
	// creating it only when it is absent. Called once at startup.
	EnsureBucket(ctx context.Context) error
}
