package storage

import (
	"errors"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		total     int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   bool
	}{
		{"no header", "", 100, 0, 0, true, false},
		{"full bounds", "bytes=10-49", 100, 10, 49, false, false},
		{"omitted end reads to end", "bytes=10-", 100, 10, 99, false, false},
		{"omitted start defaults to zero", "bytes=-49", 100, 0, 49, false, false},
		{"single byte", "bytes=0-0", 100, 0, 0, false, false},
		{"last byte", "bytes=99-99", 100, 99, 99, false, false},
		{"end clamped to size", "bytes=50-500", 100, 50, 99, false, false},
		{"start past end of object", "bytes=100-200", 100, 0, 0, false, true},
		{"start after end", "bytes=30-10", 100, 0, 0, false, true},
		{"missing prefix", "10-49", 100, 0, 0, false, true},
		{"garbage start", "bytes=abc-10", 100, 0, 0, false, true},
		{"garbage end", "bytes=0-xyz", 100, 0, 0, false, true},
		{"no dash", "bytes=10", 100, 0, 0, false, true},
		{"any range on empty object", "bytes=0-0", 0, 0, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseRange(tt.header, tt.total)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got spec %+v", tt.header, spec)
				}
				if !errors.Is(err, ErrInvalidRange) {
					t.Fatalf("expected ErrInvalidRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantNil {
				if spec != nil {
					t.Fatalf("expected nil spec, got %+v", spec)
				}
				return
			}
			if spec == nil {
				t.Fatal("expected spec, got nil")
			}
			if spec.Start != tt.wantStart || spec.End != tt.wantEnd {
				t.Fatalf("got range %d-%d, want %d-%d", spec.Start, spec.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestRangeSpecContentRange(t *testing.T) {
	spec := RangeSpec{Start: 10, End: 49}
	if got := spec.ContentRange(100); got != "bytes 10-49/100" {
		t.Fatalf("unexpected content range: %s", got)
	}
	if got := spec.Length(); got != 40 {
		t.Fatalf("unexpected length: %d", got)
	}
}
