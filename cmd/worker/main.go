// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/archiviste/mediacore/internal/bus"
	"github.com/archiviste/mediacore/internal/process"
	"github.com/archiviste/mediacore/internal/storage"
	"github.com/archiviste/mediacore/internal/thumbnail"
	"github.com/archiviste/mediacore/pkg/schema"
)

// jobTimeout bounds one whole derivation: probe (15s) + frame extraction
// (30s) + storage round trips.
const jobTimeout = 60 * time.Second

type config struct {
	NATSURL       string
	UploadSubject string
	WorkerQueue   string
	ResultSubject string

	StorageBackend string
	LocalDir       string
	S3             storage.S3Config

	ThumbQuality int
}

func loadConfig() (config, error) {
	cfg := config{
		NATSURL:        getenv("NATS_URL", "nats://127.0.0.1:4222"),
		UploadSubject:  getenv("SUBJECT_ARCHIVE_UPLOADED", "archives.uploaded"),
		WorkerQueue:    getenv("WORKER_QUEUE", "thumbnail-workers"),
		ResultSubject:  getenv("SUBJECT_THUMBNAIL_DONE", "archives.thumbnail.done"),
		StorageBackend: getenv("STORAGE_BACKEND", "s3"),
		LocalDir:       getenv("STORAGE_LOCAL_DIR", "./data/storage"),
		S3: storage.S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "127.0.0.1:9000"),
			PublicEndpoint:  getenv("S3_PUBLIC_ENDPOINT", ""),
			Region:          getenv("S3_REGION", "us-east-1"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", ""),
			SecretAccessKey: getenv("S3_SECRET_KEY", ""),
			Bucket:          getenv("S3_BUCKET", "archives"),
			UseSSL:          getenvBool("S3_USE_SSL", false),
			UsePathStyle:    getenvBool("S3_USE_PATH_STYLE", true),
		},
	}

	quality, err := parseQuality(getenv("THUMBNAIL_QUALITY", strconv.Itoa(thumbnail.DefaultQuality)))
	if err != nil {
		return config{}, err
	}
	cfg.ThumbQuality = quality

	switch cfg.StorageBackend {
	case "s3", "local", "memory":
	default:
		return config{}, fmt.Errorf("unknown STORAGE_BACKEND %q (expected s3, local or memory)", cfg.StorageBackend)
	}

	return cfg, nil
}

func parseQuality(value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid THUMBNAIL_QUALITY: %w", err)
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("THUMBNAIL_QUALITY must be between 0 and 100 (got %d)", v)
	}
	return v, nil
}

func newStore(ctx context.Context, cfg config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "local":
		return storage.NewLocalStore(cfg.LocalDir), nil
	case "memory":
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewS3Store(ctx, cfg.S3)
	}
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		fatal(logger, "load config", err)
	}
	logger.Info("worker starting",
		"nats_url", cfg.NATSURL,
		"upload_subject", cfg.UploadSubject,
		"queue", cfg.WorkerQueue,
		"result_subject", cfg.ResultSubject,
		"storage_backend", cfg.StorageBackend,
		"thumbnail_quality", cfg.ThumbQuality,
	)

	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		fatal(logger, "build storage backend", err, "backend", cfg.StorageBackend)
	}

	// Degraded startup is allowed: a temporarily unreachable store should
	// not keep the worker from coming up.
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Warn("storage check failed, continuing degraded", "backend", cfg.StorageBackend, "err", err)
	} else {
		logger.Info("storage ready", "backend", cfg.StorageBackend)
	}

	svc := thumbnail.New(store, thumbnail.NewFFmpegTool(), cfg.ThumbQuality, logger)

	nc, err := bus.Connect(cfg.NATSURL)
	if err != nil {
		fatal(logger, "connect to NATS", err, "nats_url", cfg.NATSURL)
	}
	logger.Info("connected to NATS", "nats_url", cfg.NATSURL)
	defer nc.Close()

	_, err = nc.QueueSubscribe(cfg.UploadSubject, cfg.WorkerQueue, jobTimeout, func(jobCtx context.Context, data []byte) {
		handleUpload(jobCtx, data, cfg, store, svc, nc, logger)
	})
	if err != nil {
		fatal(logger, "subscribe worker", err, "subject", cfg.UploadSubject, "queue", cfg.WorkerQueue)
	}
	logger.Info("listening for uploads", "subject", cfg.UploadSubject, "queue", cfg.WorkerQueue)

	select {}
}

func handleUpload(ctx context.Context, data []byte, cfg config, store storage.Store, svc *thumbnail.Service, nc *bus.Client, logger *slog.Logger) {
	var evt schema.ArchiveUploaded
	if err := json.Unmarshal(data, &evt); err != nil {
		logger.Error("decode upload event failed", "err", err)
		return
	}

	job := process.NewJob("thumbnail", evt.ArchiveID, evt.ObjectKey)
	jobLogger := logger.With("archive_id", evt.ArchiveID, "object_key", evt.ObjectKey, "media_type", evt.MediaType)
	jobLogger.Info("received upload event")

	process.MarkRunning(job)
	start := time.Now()

	source, err := fetchSource(ctx, store, evt.ObjectKey)
	if err != nil {
		process.MarkFailed(job, err)
		jobLogger.Error("fetch source failed", "err", err)
		publishResult(nc, cfg.ResultSubject, evt, thumbnail.Descriptor{}, start, err, jobLogger)
		return
	}

	desc, err := svc.Derive(ctx, evt.MediaType, source, thumbnail.KeyPrefix(evt.ObjectKey))
	if err != nil {
		// Storage failure while persisting the thumbnail; metadata-level
		// results (duration) are still reported.
		process.MarkFailed(job, err)
		jobLogger.Error("derivation failed", "err", err)
		publishResult(nc, cfg.ResultSubject, evt, desc, start, err, jobLogger)
		return
	}

	process.MarkSucceeded(job)
	publishResult(nc, cfg.ResultSubject, evt, desc, start, nil, jobLogger)
	jobLogger.Info("completed derivation",
		"has_thumbnail", desc.ThumbnailKey != nil,
		"has_duration", desc.DurationSeconds != nil,
		"processing_time_ms", time.Since(start).Milliseconds(),
	)
}

func fetchSource(ctx context.Context, store storage.Store, key string) ([]byte, error) {
	obj, err := store.Read(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("read source object: %w", err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("read source body: %w", err)
	}
	return data, nil
}

func publishResult(nc *bus.Client, subject string, evt schema.ArchiveUploaded, desc thumbnail.Descriptor, start time.Time, cause error, logger *slog.Logger) {
	done := schema.ThumbnailDone{
		ArchiveID:        evt.ArchiveID,
		ObjectKey:        evt.ObjectKey,
		ThumbnailKey:     desc.ThumbnailKey,
		DurationSeconds:  desc.DurationSeconds,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		HappenedAt:       time.Now().Unix(),
	}
	if cause != nil {
		done.Error = cause.Error()
	}

	if err := nc.PublishJSON(subject, done); err != nil {
		logger.Error("publish result failed", "subject", subject, "err", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvBool(key string, defaultValue bool) bool {
	val := getenv(key, "")
	if val == "" {
		return defaultValue
	}
	return val == "true"
}
