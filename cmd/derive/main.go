// cmd/derive is a standalone CLI for testing thumbnail derivation without
// the worker infrastructure. It runs a single derivation against a local
// storage root and prints the resulting descriptor.
//
// Usage:
//
//	./derive -input video.mp4
//	./derive -input photo.png -store ./out -quality 60
//	./derive -input clip.webm -kind video
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/archiviste/mediacore/internal/storage"
	"github.com/archiviste/mediacore/internal/thumbnail"
)

func main() {
	input := flag.String("input", "", "Input file path (required)")
	kind := flag.String("kind", "", "Media kind: video, audio, image or document (default: detect)")
	storeDir := flag.String("store", "./data/storage", "Local storage root for the derived thumbnail")
	quality := flag.Int("quality", thumbnail.DefaultQuality, "Thumbnail quality (0-100, higher is better)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input flag is required")
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}

	mediaKind := *kind
	if mediaKind == "" {
		mediaKind = detectKind(data)
	}

	store := storage.NewLocalStore(*storeDir)
	ctx := context.Background()
	if err := store.EnsureBucket(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "prepare storage root: %v\n", err)
		os.Exit(1)
	}

	svc := thumbnail.New(store, thumbnail.NewFFmpegTool(), *quality, logger)

	prefix := thumbnail.KeyPrefix(filepath.Base(*input))
	start := time.Now()
	desc, err := svc.Derive(ctx, mediaKind, data, prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "derivation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("kind:      %s\n", mediaKind)
	if desc.ThumbnailKey != nil {
		fmt.Printf("thumbnail: %s\n", filepath.Join(*storeDir, *desc.ThumbnailKey))
	} else {
		fmt.Println("thumbnail: (none)")
	}
	if desc.DurationSeconds != nil {
		fmt.Printf("duration:  %.2fs\n", *desc.DurationSeconds)
	} else {
		fmt.Println("duration:  (unknown)")
	}
	fmt.Printf("elapsed:   %v\n", time.Since(start).Round(time.Millisecond))
}

// detectKind maps sniffed content types onto the platform's media kinds.
func detectKind(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	default:
		return "document"
	}
}
