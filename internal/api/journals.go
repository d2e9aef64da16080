package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/database"
	"github.com/truinsights/voicejournal/internal/metrics"
	"github.com/truinsights/voicejournal/internal/pipeline"
	"github.com/truinsights/voicejournal/internal/storage"
)

const (
	maxAudioUpload   = 32 << 20
	defaultListLimit = 5
	maxListLimit     = 50
)

// JournalStore is the slice of the database the journal handlers need.
type JournalStore interface {
	InsertJournal(ctx context.Context, nj database.NewJournal) (*database.JournalEntry, error)
	GetJournal(ctx context.Context, id, userID uuid.UUID) (*database.JournalEntry, error)
	ListRecentJournals(ctx context.Context, userID uuid.UUID, limit int) ([]database.JournalEntry, error)
}

// Enqueuer submits processing jobs and reports queue state.
type Enqueuer interface {
	Enqueue(pipeline.Job) error
	Stats() pipeline.QueueStats
}

// JournalsHandler serves the journal CRUD and processing endpoints.
type JournalsHandler struct {
	store JournalStore
	audio storage.AudioStore
	queue Enqueuer
	log   zerolog.Logger
}

// NewJournalsHandler creates the journal handler.
func NewJournalsHandler(store JournalStore, audio storage.AudioStore, queue Enqueuer, log zerolog.Logger) *JournalsHandler {
	return &JournalsHandler{
		store: store,
		audio: audio,
		queue: queue,
		log:   log.With().Str("handler", "journals").Logger(),
	}
}

// Routes registers the journal endpoints.
func (h *JournalsHandler) Routes(r chi.Router) {
	r.Post("/journals", h.Create)
	r.Get("/journals", h.List)
	r.Get("/journals/queue", h.Queue)
	r.Get("/journals/{id}", h.Get)
	r.Get("/journals/{id}/audio", h.Audio)
	r.Post("/journals/{id}/process", h.Process)
	r.Post("/journals/{id}/extract", h.Extract)
}

// Create handles POST /api/v1/journals.
// Accepts a multipart form with an "audio" file and a "duration_seconds"
// field, stores the audio, inserts a transcript-less entry and enqueues
// processing unless process=false. The recording is only gone from the
// client once this returns 201, so failures here must be loud.
func (h *JournalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "no audio file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read audio file")
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	duration := 0
	if v := r.FormValue("duration_seconds"); v != "" {
		duration, err = strconv.Atoi(v)
		if err != nil || duration < 0 {
			WriteError(w, http.StatusBadRequest, "invalid duration_seconds: must be a non-negative integer")
			return
		}
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	key := storage.Key(sess.UserID, time.Now(), extFromUpload(header.Filename, mimeType))
	if err := h.audio.Save(r.Context(), key, data, mimeType); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("audio save failed")
		WriteError(w, http.StatusInternalServerError, "failed to store audio")
		return
	}

	entry, err := h.store.InsertJournal(r.Context(), database.NewJournal{
		UserID:               sess.UserID,
		AudioKey:             key,
		AudioMime:            mimeType,
		AudioDurationSeconds: duration,
	})
	if err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("journal insert failed")
		WriteError(w, http.StatusInternalServerError, "failed to save journal")
		return
	}
	metrics.JournalsCreatedTotal.Inc()

	if r.FormValue("process") != "false" {
		err := h.queue.Enqueue(pipeline.Job{
			JournalID: entry.ID,
			UserID:    entry.UserID,
			AudioKey:  entry.AudioKey,
			AudioMime: entry.AudioMime,
		})
		if err != nil {
			// The entry is saved; processing can be retried via /process.
			h.log.Warn().Err(err).Str("journal_id", entry.ID.String()).Msg("processing not enqueued")
		}
	}

	WriteJSON(w, http.StatusCreated, entry)
}

// List handles GET /api/v1/journals. Newest first, default 5, cap 50.
func (h *JournalsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, err := QueryLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	journals, err := h.store.ListRecentJournals(r.Context(), sess.UserID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("journal list failed")
		WriteError(w, http.StatusInternalServerError, "failed to list journals")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"journals": journals,
		"count":    len(journals),
	})
}

// Get handles GET /api/v1/journals/{id}.
func (h *JournalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, entry)
}

// Audio handles GET /api/v1/journals/{id}/audio.
// Redirects to a presigned URL when the backend provides one, otherwise
// streams the object directly.
func (h *JournalsHandler) Audio(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}

	url, err := h.audio.URL(r.Context(), entry.AudioKey)
	if err != nil {
		h.log.Error().Err(err).Str("key", entry.AudioKey).Msg("presign failed")
		WriteError(w, http.StatusInternalServerError, "failed to resolve audio")
		return
	}
	if url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := h.audio.Open(r.Context(), entry.AudioKey)
	if err != nil {
		WriteError(w, http.StatusNotFound, "audio not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", entry.AudioMime)
	io.Copy(w, rc)
}

// Process handles POST /api/v1/journals/{id}/process.
// Re-runs the full pipeline for an entry. 409 while a run for the same
// entry is in flight.
func (h *JournalsHandler) Process(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.enqueue(w, pipeline.Job{
		JournalID: entry.ID,
		UserID:    entry.UserID,
		AudioKey:  entry.AudioKey,
		AudioMime: entry.AudioMime,
	})
}

// Extract handles POST /api/v1/journals/{id}/extract.
// Re-runs insight extraction from the stored transcript. 409 when the
// entry has no transcript yet.
func (h *JournalsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if entry.Transcript == nil || *entry.Transcript == "" {
		WriteError(w, http.StatusConflict, "journal has no transcript yet")
		return
	}
	h.enqueue(w, pipeline.Job{
		JournalID:   entry.ID,
		UserID:      entry.UserID,
		ExtractOnly: true,
	})
}

// Queue handles GET /api/v1/journals/queue.
func (h *JournalsHandler) Queue(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.queue.Stats())
}

func (h *JournalsHandler) enqueue(w http.ResponseWriter, job pipeline.Job) {
	switch err := h.queue.Enqueue(job); {
	case err == nil:
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case errors.Is(err, pipeline.ErrInFlight):
		WriteError(w, http.StatusConflict, "journal is already being processed")
	case errors.Is(err, pipeline.ErrQueueFull):
		WriteError(w, http.StatusServiceUnavailable, "processing queue is full")
	default:
		WriteError(w, http.StatusInternalServerError, "failed to enqueue processing")
	}
}

// lookup resolves the session and the owner-scoped journal from the
// request, writing the error response itself when either fails.
func (h *JournalsHandler) lookup(w http.ResponseWriter, r *http.Request) (*database.JournalEntry, bool) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	id, err := PathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	entry, err := h.store.GetJournal(r.Context(), id, sess.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "journal not found")
		} else {
			h.log.Error().Err(err).Str("journal_id", id.String()).Msg("journal lookup failed")
			WriteError(w, http.StatusInternalServerError, "failed to load journal")
		}
		return nil, false
	}
	return entry, true
}

// extFromUpload derives an object key extension from the uploaded
// filename, falling back to the MIME subtype.
func extFromUpload(filename, mimeType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return ext
	}
	switch {
	case strings.Contains(mimeType, "webm"):
		return "webm"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return "mp3"
	case strings.Contains(mimeType, "wav"):
		return "wav"
	case strings.Contains(mimeType, "ogg"):
		return "ogg"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return "m4a"
	}
	return "webm"
}
