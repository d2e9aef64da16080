package transcribe

import (
	"context"
	"fmt"
)

// Provider is the interface for speech-to-text backends.
// Implementations make exactly one attempt per call; retry policy, if
// any, belongs to the caller.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*Response, error)
	Name() string  // "whisper", "mock"
	Model() string // model identifier for logs
}

// Response is the common transcription result from any provider.
type Response struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds, 0 if unreported
}

// Error is a transcription failure: network error, non-2xx response, or
// an empty/invalid payload. StatusCode is 0 when no HTTP response arrived.
type Error struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription failed (status %d): %s", e.StatusCode, e.Reason)
	}
	return "transcription failed: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }
