package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/truinsights/voicejournal/internal/insights"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

// MockRoutes registers the unauthenticated mock endpoints. They return
// fixed payloads so frontend work can proceed without provider keys.
func MockRoutes(r chi.Router) {
	r.Post("/transcribe-mock", mockTranscribe)
	r.Post("/extract-insights-mock", mockExtract)
}

func mockTranscribe(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"transcript": transcribe.MockTranscript})
}

func mockExtract(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"extracted": insights.MockExtracted})
}
