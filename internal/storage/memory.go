package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in a map. It exists for tests and for running the
// worker without any external storage.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryStore) EnsureBucket(ctx context.Context) error { return nil }

func (s *MemoryStore) Read(ctx context.Context, key string, rangeHeader string) (*ObjectStream, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	total := int64(len(obj.data))
	spec, err := ParseRange(rangeHeader, total)
	if err != nil {
		return nil, err
	}

	if spec == nil {
		return &ObjectStream{
			Body:          io.NopCloser(bytes.NewReader(obj.data)),
			ContentLength: total,
			ContentType:   obj.contentType,
		}, nil
	}

	return &ObjectStream{
		Body:          io.NopCloser(bytes.NewReader(obj.data[spec.Start : spec.End+1])),
		ContentLength: spec.Length(),
		ContentRange:  spec.ContentRange(total),
		ContentType:   obj.contentType,
	}, nil
}

func (s *MemoryStore) Write(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return key, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", ErrUnsupported
}

func (s *MemoryStore) PresignedPutURL(ctx context.Context, key string, contentType string, expiry time.Duration) (string, error) {
	return "", ErrUnsupported
}
