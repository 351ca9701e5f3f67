package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// RangeSpec is a resolved byte range, inclusive on both ends.
type RangeSpec struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r RangeSpec) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the spec as an HTTP Content-Range value for an object
// of the given total size.
func (r RangeSpec) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a "bytes=start-end" header against an object of the given
// total size. An omitted start defaults to 0, an omitted end to total-1, and
// end is clamped to total-1. A nil spec with nil error means no range was
// requested. Ranges wholly outside the object yield ErrInvalidRange.
func ParseRange(header string, total int64) (*RangeSpec, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, header)
	}

	var start, end int64
	end = total - 1

	if startStr != "" {
		v, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, header)
		}
		start = v
	}
	if endStr != "" {
		v, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, header)
		}
		end = v
	}

	if end > total-1 {
		end = total - 1
	}
	if start > total-1 || start > end {
		return nil, fmt.Errorf("%w: %q exceeds object size %d", ErrInvalidRange, header, total)
	}

	return &RangeSpec{Start: start, End: end}, nil
}
