package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

// Backends must be behaviorally interchangeable for read/write/delete, so
// the same suite runs against both.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func writeObject(t *testing.T, s Store, key string, data []byte) {
	t.Helper()
	got, err := s.Write(context.Background(), key, data, "application/octet-stream")
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if got != key {
		t.Fatalf("Write returned key %q, want %q", got, key)
	}
}

func readAll(t *testing.T, obj *ObjectStream) []byte {
	t.Helper()
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return data
}

func testObject(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestReadFullObject(t *testing.T) {
	data := testObject(1000)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			writeObject(t, s, "video/full.bin", data)

			obj, err := s.Read(context.Background(), "video/full.bin", "")
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if obj.ContentLength != int64(len(data)) {
				t.Fatalf("content length %d, want %d", obj.ContentLength, len(data))
			}
			if obj.ContentRange != "" {
				t.Fatalf("unexpected content range for full read: %q", obj.ContentRange)
			}
			if !bytes.Equal(readAll(t, obj), data) {
				t.Fatal("body does not match written object")
			}
		})
	}
}

func TestReadRanges(t *testing.T) {
	data := testObject(1000)

	tests := []struct {
		name      string
		header    string
		wantStart int64
		wantEnd   int64
	}{
		{"inner slice", "bytes=100-199", 100, 199},
		{"open end", "bytes=900-", 900, 999},
		{"open start", "bytes=-99", 0, 99},
		{"clamped end", "bytes=990-5000", 990, 999},
		{"single byte", "bytes=0-0", 0, 0},
	}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			writeObject(t, s, "video/ranged.bin", data)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					obj, err := s.Read(context.Background(), "video/ranged.bin", tt.header)
					if err != nil {
						t.Fatalf("Read(%q) returned error: %v", tt.header, err)
					}

					wantLen := tt.wantEnd - tt.wantStart + 1
					if obj.ContentLength != wantLen {
						t.Fatalf("content length %d, want %d", obj.ContentLength, wantLen)
					}

					want := RangeSpec{Start: tt.wantStart, End: tt.wantEnd}.ContentRange(int64(len(data)))
					if obj.ContentRange != want {
						t.Fatalf("content range %q, want %q", obj.ContentRange, want)
					}

					body := readAll(t, obj)
					if !bytes.Equal(body, data[tt.wantStart:tt.wantEnd+1]) {
						t.Fatalf("body mismatch for %q: got %d bytes", tt.header, len(body))
					}
				})
			}
		})
	}
}

func TestReadInvalidRange(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			writeObject(t, s, "video/short.bin", testObject(10))

			_, err := s.Read(context.Background(), "video/short.bin", "bytes=50-60")
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestReadMissingObject(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(context.Background(), "missing/key.bin", "")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			writeObject(t, s, "doomed.bin", testObject(10))

			if err := s.Delete(context.Background(), "doomed.bin"); err != nil {
				t.Fatalf("Delete returned error: %v", err)
			}
			if _, err := s.Read(context.Background(), "doomed.bin", ""); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}

			// Deleting a missing object is not an error.
			if err := s.Delete(context.Background(), "doomed.bin"); err != nil {
				t.Fatalf("second Delete returned error: %v", err)
			}
		})
	}
}

func TestPresignedURLsUnsupported(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.PresignedGetURL(context.Background(), "k", time.Hour); !errors.Is(err, ErrUnsupported) {
				t.Fatalf("expected ErrUnsupported from PresignedGetURL, got %v", err)
			}
			if _, err := s.PresignedPutURL(context.Background(), "k", "video/mp4", time.Hour); !errors.Is(err, ErrUnsupported) {
				t.Fatalf("expected ErrUnsupported from PresignedPutURL, got %v", err)
			}
		})
	}
}

func TestLocalEnsureBucketCreatesRoot(t *testing.T) {
	dir := t.TempDir() + "/nested/storage"
	s := NewLocalStore(dir)

	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket returned error: %v", err)
	}
	// Creating twice is fine.
	if err := s.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("second EnsureBucket returned error: %v", err)
	}

	writeObject(t, s, "a/b/c.bin", testObject(5))
	obj, err := s.Read(context.Background(), "a/b/c.bin", "")
	if err != nil {
		t.Fatalf("Read after EnsureBucket: %v", err)
	}
	obj.Body.Close()
}
