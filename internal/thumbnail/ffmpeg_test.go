package thumbnail

import (
	"strings"
	"testing"
)

func TestFrameQuality(t *testing.T) {
	tests := []struct {
		quality int
		want    int
	}{
		{60, 5},
		{100, 2},
		{90, 2},
		{85, 3},
		{0, 10},
		{110, 2},
	}
	for _, tt := range tests {
		if got := FrameQuality(tt.quality); got != tt.want {
			t.Errorf("FrameQuality(%d) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}

func TestSeekOffset(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		duration *float64
		want     float64
	}{
		{"unknown duration", nil, 0},
		{"at threshold", f(2.0), 0},
		{"just above threshold", f(5.0), 0.5},
		{"capped at one second", f(60.0), 1.0},
		{"zero duration", f(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := seekOffset(tt.duration); got != tt.want {
				t.Fatalf("seekOffset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseProbeDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{"valid", `{"format":{"duration":"5.000000","format_name":"mov,mp4"}}`, 5.0, false},
		{"fractional", `{"format":{"duration":"12.345"}}`, 12.345, false},
		{"missing duration", `{"format":{"format_name":"mov,mp4"}}`, 0, true},
		{"missing format", `{}`, 0, true},
		{"malformed json", `not json`, 0, true},
		{"non-numeric duration", `{"format":{"duration":"N/A"}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbeDuration([]byte(tt.output))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("duration %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractArgs(t *testing.T) {
	args := extractArgs("/tmp/in", "/tmp/out.jpg", 0.5, 5)
	joined := strings.Join(args, " ")

	// Input seek must come before -i so ffmpeg seeks on the demuxer.
	ss := strings.Index(joined, "-ss 0.5")
	in := strings.Index(joined, "-i /tmp/in")
	if ss == -1 || in == -1 || ss > in {
		t.Fatalf("input seek not placed before -i: %s", joined)
	}

	if !strings.Contains(joined, "-frames:v 1") {
		t.Fatalf("missing single-frame flag: %s", joined)
	}
	if !strings.Contains(joined, "scale=640:360:force_original_aspect_ratio=decrease,pad=640:360:(ow-iw)/2:(oh-ih)/2:color=black") {
		t.Fatalf("missing scale+pad filter: %s", joined)
	}
	if !strings.Contains(joined, "-q:v 5") {
		t.Fatalf("missing quality flag: %s", joined)
	}
	if args[len(args)-1] != "/tmp/out.jpg" {
		t.Fatalf("output path not last: %s", joined)
	}
}
