// Package thumbnail derives preview images and duration metadata from
// uploaded media. Derivation degrades gracefully: a failed probe or frame
// extraction leaves the corresponding descriptor field unset instead of
// failing the ingest, and only storage failures propagate as errors.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/archiviste/mediacore/internal/storage"
)

// Target thumbnail canvas. Videos are padded to fill it exactly; images are
// fit inside it without padding.
const (
	ThumbWidth  = 640
	ThumbHeight = 360
)

// DefaultQuality is the JPEG quality (0-100, higher is better) used when no
// quality is configured.
const DefaultQuality = 85

// Descriptor is the result of a derivation. Both fields are independently
// optional: a video with an unreadable container can still get a thumbnail,
// and a readable duration survives a failed frame extraction.
type Descriptor struct {
	ThumbnailKey    *string  `json:"thumbnail_key"`
	DurationSeconds *float64 `json:"duration_seconds"`
}

// Service derives thumbnails into a storage backend via an injected media
// tool. Each call is independent; the service holds no mutable state.
type Service struct {
	store   storage.Store
	tool    Tool
	quality int
	log     *slog.Logger
}

// New creates a derivation service. Quality is clamped to 0-100.
func New(store storage.Store, tool Tool, quality int, log *slog.Logger) *Service {
	if quality < 0 || quality > 100 {
		quality = DefaultQuality
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, tool: tool, quality: quality, log: log}
}

// KeyPrefix strips one trailing extension from a source object key, so that
// "video/abc123.mp4" yields thumbnail keys under "thumbnails/video/abc123/".
func KeyPrefix(objectKey string) string {
	ext := filepath.Ext(objectKey)
	return strings.TrimSuffix(objectKey, ext)
}

// thumbKey allocates a random object key for a derived thumbnail.
func thumbKey(prefix string) string {
	u := uuid.New()
	return fmt.Sprintf("thumbnails/%s/%x.jpg", prefix, u[:])
}

// Derive produces a thumbnail descriptor for the given media kind. Kinds
// other than "video" and "image" return an empty descriptor without invoking
// any tool. Expected tool and decode failures are logged and degrade to unset
// fields; only storage errors are returned.
func (s *Service) Derive(ctx context.Context, kind string, data []byte, keyPrefix string) (Descriptor, error) {
	switch kind {
	case "video":
		return s.deriveVideo(ctx, data, keyPrefix)
	case "image":
		return s.deriveImage(ctx, data, keyPrefix)
	default:
		return Descriptor{}, nil
	}
}

// seekOffset picks the frame-extraction timestamp: 10% into the clip capped
// at 1s, or the very first frame for short or unknown-duration clips. This
// skips black or blank leading frames without overshooting short videos.
func seekOffset(duration *float64) float64 {
	if duration != nil && *duration > 2 {
		return math.Min(1.0, *duration*0.1)
	}
	return 0
}

func (s *Service) deriveVideo(ctx context.Context, data []byte, keyPrefix string) (Descriptor, error) {
	var desc Descriptor

	tmpDir, err := os.MkdirTemp("", "mediacore-derive-*")
	if err != nil {
		s.log.Warn("create scratch dir failed", "err", err)
		return desc, nil
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "input")
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		s.log.Warn("write scratch file failed", "err", err)
		return desc, nil
	}

	if dur, err := s.tool.Probe(ctx, srcPath); err != nil {
		s.log.Warn("video duration probe failed", "key_prefix", keyPrefix, "err", err)
	} else {
		desc.DurationSeconds = &dur
	}

	thumbPath := filepath.Join(tmpDir, "thumb.jpg")
	seek := seekOffset(desc.DurationSeconds)
	if err := s.tool.ExtractFrame(ctx, srcPath, thumbPath, seek, FrameQuality(s.quality)); err != nil {
		// Duration may still have resolved independently.
		s.log.Warn("video frame extraction failed", "key_prefix", keyPrefix, "seek", seek, "err", err)
		return desc, nil
	}

	thumbData, err := os.ReadFile(thumbPath)
	if err != nil {
		s.log.Warn("read extracted frame failed", "key_prefix", keyPrefix, "err", err)
		return desc, nil
	}

	key := thumbKey(keyPrefix)
	if _, err := s.store.Write(ctx, key, thumbData, "image/jpeg"); err != nil {
		return desc, fmt.Errorf("upload video thumbnail: %w", err)
	}
	desc.ThumbnailKey = &key

	s.log.Info("video thumbnail generated", "key", key, "duration_seconds", desc.DurationSeconds)
	return desc, nil
}

func (s *Service) deriveImage(ctx context.Context, data []byte, keyPrefix string) (Descriptor, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		s.log.Warn("image thumbnail decode failed", "key_prefix", keyPrefix, "err", err)
		return Descriptor{}, nil
	}

	// Fit preserves aspect ratio and never upscales. JPEG encoding flattens
	// any alpha channel.
	thumb := imaging.Fit(src, ThumbWidth, ThumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		s.log.Warn("image thumbnail encode failed", "key_prefix", keyPrefix, "err", err)
		return Descriptor{}, nil
	}

	key := thumbKey(keyPrefix)
	if _, err := s.store.Write(ctx, key, buf.Bytes(), "image/jpeg"); err != nil {
		return Descriptor{}, fmt.Errorf("upload image thumbnail: %w", err)
	}

	s.log.Info("image thumbnail generated", "key", key)
	return Descriptor{ThumbnailKey: &key}, nil
}
