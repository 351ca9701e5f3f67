package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"
)

// LocalStore stores objects as files under a root directory. It mirrors the
// S3 backend for read/write/delete; presigned URLs are not supported since
// there is no store for a client to talk to directly.
type LocalStore struct {
	root string
}

// NewLocalStore creates a filesystem-backed store rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// EnsureBucket creates the root directory if it does not exist.
func (s *LocalStore) EnsureBucket(ctx context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("ensure storage dir: %w", err)
	}
	return nil
}

func (s *LocalStore) Read(ctx context.Context, key string, rangeHeader string) (*ObjectStream, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat object: %w", err)
	}
	total := info.Size()

	spec, err := ParseRange(rangeHeader, total)
	if err != nil {
		f.Close()
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))

	if spec == nil {
		return &ObjectStream{
			Body:          f,
			ContentLength: total,
			ContentType:   contentType,
		}, nil
	}

	return &ObjectStream{
		Body:          newSectionReadCloser(f, spec.Start, spec.Length()),
		ContentLength: spec.Length(),
		ContentRange:  spec.ContentRange(total),
		ContentType:   contentType,
	}, nil
}

func (s *LocalStore) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir for object: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return key, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *LocalStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", ErrUnsupported
}

func (s *LocalStore) PresignedPutURL(ctx context.Context, key string, contentType string, expiry time.Duration) (string, error) {
	return "", ErrUnsupported
}

// sectionReadCloser streams a byte range of an open file and closes the file
// when the caller is done.
type sectionReadCloser struct {
	io.Reader
	f *os.File
}

func newSectionReadCloser(f *os.File, off, n int64) *sectionReadCloser {
	return &sectionReadCloser{Reader: io.NewSectionReader(f, off, n), f: f}
}

func (s *sectionReadCloser) Close() error { return s.f.Close() }
