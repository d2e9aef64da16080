package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/config"
)

// AudioStore abstracts audio object storage backends.
type AudioStore interface {
	// Save stores audio data under key. key format: {user_id}/{unix_millis}.{ext}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// URL returns a presigned playback URL for the audio object.
	// Returns "" for local-only backends; callers fall back to streaming.
	URL(ctx context.Context, key string) (string, error)

	// Open returns a reader for the audio object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an audio object exists.
	Exists(ctx context.Context, key string) bool

	// Type returns "local" or "s3".
	Type() string
}

// New creates an AudioStore based on config.
// Returns an error if S3 is configured but unreachable.
func New(cfg config.S3Config, audioDir string, log zerolog.Logger) (AudioStore, error) {
	if !cfg.Enabled() {
		return NewLocalStore(audioDir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	// Startup validation: verify credentials and bucket access
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.Bucket, cfg.Endpoint, err)
	}
	log.Info().Str("bucket", cfg.Bucket).Str("endpoint", cfg.Endpoint).Msg("S3 connection verified")

	return s3store, nil
}

// Key builds an audio object key for a user's recording. Keys are scoped
// by user so an object reference never crosses ownership boundaries.
func Key(userID uuid.UUID, now time.Time, ext string) string {
	if ext == "" {
		ext = "webm"
	}
	return path.Join(userID.String(), fmt.Sprintf("%d.%s", now.UnixMilli(), ext))
}
