package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Tool is the external media capability the derivation service depends on.
// It is an interface so the service can be tested with a fake instead of the
// real ffmpeg binaries.
type Tool interface {
	// Probe returns the container duration of the media file in seconds.
	Probe(ctx context.Context, path string) (float64, error)

	// ExtractFrame writes a single JPEG frame from src to dst, seeking to
	// the given offset. Quality is the encoder's own scale as produced by
	// FrameQuality.
	ExtractFrame(ctx context.Context, src, dst string, seek float64, quality int) error
}

// Subprocess invocations are bounded so a malformed upload cannot stall the
// ingest path indefinitely.
const (
	DefaultProbeTimeout   = 15 * time.Second
	DefaultExtractTimeout = 30 * time.Second
)

// FFmpegTool invokes ffprobe and ffmpeg as subprocesses.
type FFmpegTool struct {
	FFmpegPath     string
	FFprobePath    string
	ProbeTimeout   time.Duration
	ExtractTimeout time.Duration
}

// NewFFmpegTool returns a tool using the ffmpeg/ffprobe binaries from PATH
// with the default timeouts.
func NewFFmpegTool() *FFmpegTool {
	return &FFmpegTool{
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		ProbeTimeout:   DefaultProbeTimeout,
		ExtractTimeout: DefaultExtractTimeout,
	}
}

// FrameQuality maps the configured 0-100 quality (higher is better) onto
// ffmpeg's inverted -q:v scale (2-31, lower is better), clamped to 2-10.
func FrameQuality(quality int) int {
	q := 11 - quality/10
	if q < 2 {
		q = 2
	}
	if q > 10 {
		q = 10
	}
	return q
}

// Probe runs ffprobe with JSON output and reads format.duration.
func (t *FFmpegTool) Probe(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeDuration(out)
}

// parseProbeDuration extracts format.duration from ffprobe's JSON output.
func parseProbeDuration(out []byte) (float64, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output missing format.duration")
	}
	dur, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return dur, nil
}

// extractArgs builds the ffmpeg argument list: input seek before -i for
// speed, a single frame, scaled to fit the canvas and padded with black to
// fill it exactly.
func extractArgs(src, dst string, seek float64, quality int) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black",
		ThumbWidth, ThumbHeight, ThumbWidth, ThumbHeight,
	)
	return []string{
		"-y",
		"-ss", strconv.FormatFloat(seek, 'f', -1, 64),
		"-i", src,
		"-frames:v", "1",
		"-vf", filter,
		"-q:v", strconv.Itoa(quality),
		dst,
	}
}

// ExtractFrame runs ffmpeg to pull one padded 640x360 JPEG frame out of src.
func (t *FFmpegTool) ExtractFrame(ctx context.Context, src, dst string, seek float64, quality int) error {
	ctx, cancel := context.WithTimeout(ctx, t.ExtractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFmpegPath, extractArgs(src, dst, seek, quality)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, truncate(string(out), 500))
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("ffmpeg produced no output file: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
