// pkg/schema/events.go
package schema

// ArchiveUploaded is published by the archive backend once an original file
// has been stored. MediaType is the declared kind: video, audio, image or
// document.
type ArchiveUploaded struct {
	ArchiveID   string `json:"archive_id"`
	ObjectKey   string `json:"object_key"`
	MediaType   string `json:"media_type"`
	ContentType string `json:"content_type,omitempty"`
	HappenedAt  int64  `json:"happened_at"`
}

// ThumbnailDone reports the derivation outcome. ThumbnailKey and
// DurationSeconds are independently optional: either may be null when the
// corresponding step failed, and a null field is not an error. Error is set
// only for infrastructure failures.
type ThumbnailDone struct {
	ArchiveID        string   `json:"archive_id"`
	ObjectKey        string   `json:"object_key"`
	ThumbnailKey     *string  `json:"thumbnail_key"`
	DurationSeconds  *float64 `json:"duration_seconds"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	Error            string   `json:"error,omitempty"`
	HappenedAt       int64    `json:"happened_at"`
}
