// Package pipeline runs journal processing: transcribe the stored audio,
// persist the transcript, extract insights, persist those. Each external
// call is attempted exactly once per run; a failed extraction leaves the
// entry transcript-only, which is a valid resting state the dashboard
// can render and a manual re-extraction can later repair.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/database"
	"github.com/truinsights/voicejournal/internal/insights"
	"github.com/truinsights/voicejournal/internal/metrics"
	"github.com/truinsights/voicejournal/internal/storage"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

// ErrInFlight is returned when a run for the same journal is already
// queued or executing. Double submission is rejected, never coalesced.
var ErrInFlight = errors.New("journal is already being processed")

// ErrQueueFull is returned when the job queue has no room.
var ErrQueueFull = errors.New("processing queue is full")

// JournalStore is the slice of the journal store the pipeline needs.
type JournalStore interface {
	GetJournal(ctx context.Context, id, userID uuid.UUID) (*database.JournalEntry, error)
	SetTranscript(ctx context.Context, id, userID uuid.UUID, transcript string) error
	SetInsights(ctx context.Context, id, userID uuid.UUID, ins insights.Insights) error
}

// Extractor turns a transcript into insights.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (*insights.Insights, error)
}

// Job is one processing run for a journal entry.
type Job struct {
	JournalID uuid.UUID
	UserID    uuid.UUID
	AudioKey  string
	AudioMime string

	// ExtractOnly re-runs extraction from the stored transcript without
	// touching the audio. Used by the manual re-extraction action.
	ExtractOnly bool
}

// QueueStats reports the current state of the processing queue.
type QueueStats struct {
	Pending   int   `json:"pending"`
	Completed int64 `json:"completed"`
	Partial   int64 `json:"partial"` // transcript saved, extraction failed
	Failed    int64 `json:"failed"`
}

// Options configures the processing worker pool.
type Options struct {
	Store       JournalStore
	Audio       storage.AudioStore
	Transcriber transcribe.Provider
	Extractor   Extractor
	Workers     int
	QueueSize   int
	JobTimeout  time.Duration
	Log         zerolog.Logger
}

// WorkerPool manages journal processing workers.
type WorkerPool struct {
	jobs chan Job
	opts Options
	log  zerolog.Logger
	wg   sync.WaitGroup

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}

	completed atomic.Int64
	partial   atomic.Int64
	failed    atomic.Int64
}

// New creates a processing worker pool.
func New(opts Options) *WorkerPool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	return &WorkerPool{
		jobs:     make(chan Job, opts.QueueSize),
		opts:     opts,
		log:      opts.Log,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.opts.Workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info().Int("workers", wp.opts.Workers).Int("queue_size", wp.opts.QueueSize).Msg("processing worker pool started")
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (wp *WorkerPool) Stop() {
	close(wp.jobs)
	wp.wg.Wait()
	wp.log.Info().
		Int64("completed", wp.completed.Load()).
		Int64("partial", wp.partial.Load()).
		Int64("failed", wp.failed.Load()).
		Msg("processing worker pool stopped")
}

// Enqueue adds a job to the queue. Returns ErrInFlight if a run for the
// same journal is already pending, ErrQueueFull if there is no room.
func (wp *WorkerPool) Enqueue(j Job) error {
	wp.mu.Lock()
	if _, busy := wp.inFlight[j.JournalID]; busy {
		wp.mu.Unlock()
		return ErrInFlight
	}
	wp.inFlight[j.JournalID] = struct{}{}
	wp.mu.Unlock()

	select {
	case wp.jobs <- j:
		return nil
	default:
		wp.release(j.JournalID)
		return ErrQueueFull
	}
}

// Stats returns current queue statistics.
func (wp *WorkerPool) Stats() QueueStats {
	return QueueStats{
		Pending:   len(wp.jobs),
		Completed: wp.completed.Load(),
		Partial:   wp.partial.Load(),
		Failed:    wp.failed.Load(),
	}
}

func (wp *WorkerPool) release(id uuid.UUID) {
	wp.mu.Lock()
	delete(wp.inFlight, id)
	wp.mu.Unlock()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.With().Int("worker", id).Logger()

	for job := range wp.jobs {
		outcome, err := wp.processJob(log, job)
		wp.release(job.JournalID)

		switch outcome {
		case outcomeCompleted:
			wp.completed.Add(1)
		case outcomePartial:
			wp.partial.Add(1)
			log.Warn().Err(err).
				Str("journal_id", job.JournalID.String()).
				Msg("extraction failed, journal saved transcript-only")
		case outcomeFailed:
			wp.failed.Add(1)
			log.Warn().Err(err).
				Str("journal_id", job.JournalID.String()).
				Msg("processing failed")
		}
	}
}

type outcome int

const (
	outcomeCompleted outcome = iota
	outcomePartial
	outcomeFailed
)

func (wp *WorkerPool) processJob(log zerolog.Logger, job Job) (outcome, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), wp.opts.JobTimeout)
	defer cancel()

	transcript, err := wp.transcript(ctx, job)
	if err != nil {
		return outcomeFailed, err
	}

	ins, err := wp.opts.Extractor.Extract(ctx, transcript)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return outcomePartial, err
	}
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

	if err := wp.opts.Store.SetInsights(ctx, job.JournalID, job.UserID, *ins); err != nil {
		return outcomePartial, fmt.Errorf("store insights: %w", err)
	}

	log.Debug().
		Str("journal_id", job.JournalID.String()).
		Int("transcript_chars", len(transcript)).
		Dur("duration_ms", time.Since(start)).
		Msg("processing complete")

	return outcomeCompleted, nil
}

// transcript produces the transcript for a job: from storage for a full
// run, from the journal row for an extract-only run.
func (wp *WorkerPool) transcript(ctx context.Context, job Job) (string, error) {
	if job.ExtractOnly {
		j, err := wp.opts.Store.GetJournal(ctx, job.JournalID, job.UserID)
		if err != nil {
			return "", fmt.Errorf("load journal: %w", err)
		}
		if j.Transcript == nil || *j.Transcript == "" {
			return "", fmt.Errorf("journal %s has no transcript to re-extract from", job.JournalID)
		}
		return *j.Transcript, nil
	}

	rc, err := wp.opts.Audio.Open(ctx, job.AudioKey)
	if err != nil {
		return "", fmt.Errorf("open audio %s: %w", job.AudioKey, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return "", fmt.Errorf("read audio %s: %w", job.AudioKey, err)
	}

	resp, err := wp.opts.Transcriber.Transcribe(ctx, data, job.AudioMime)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()

	if err := wp.opts.Store.SetTranscript(ctx, job.JournalID, job.UserID, resp.Text); err != nil {
		return "", fmt.Errorf("store transcript: %w", err)
	}
	return resp.Text, nil
}
