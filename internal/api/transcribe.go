package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/metrics"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

// TranscribeHandler serves the stateless transcription endpoint, used by
// clients that want a transcript without saving a journal entry.
type TranscribeHandler struct {
	provider transcribe.Provider
	log      zerolog.Logger
}

// NewTranscribeHandler creates the transcription handler.
func NewTranscribeHandler(provider transcribe.Provider, log zerolog.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		provider: provider,
		log:      log.With().Str("handler", "transcribe").Logger(),
	}
}

// Routes registers the transcription endpoint.
func (h *TranscribeHandler) Routes(r chi.Router) {
	r.Post("/transcribe", h.Transcribe)
}

// Transcribe handles POST /api/v1/transcribe.
// Accepts a multipart form with an "audio" file, responds {"transcript"}.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
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

	mimeType := header.Header.Get("Content-Type")
	resp, err := h.provider.Transcribe(r.Context(), data, mimeType)
	if err != nil {
		metrics.TranscriptionsTotal.WithLabelValues("error").Inc()
		var terr *transcribe.Error
		if errors.As(err, &terr) {
			h.log.Warn().Err(err).Int("upstream_status", terr.StatusCode).Msg("transcription failed")
			WriteError(w, http.StatusBadGateway, terr.Reason)
			return
		}
		h.log.Warn().Err(err).Msg("transcription failed")
		WriteError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	metrics.TranscriptionsTotal.WithLabelValues("ok").Inc()

	WriteJSON(w, http.StatusOK, map[string]string{"transcript": resp.Text})
}
