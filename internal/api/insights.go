package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/insights"
	"github.com/truinsights/voicejournal/internal/metrics"
	"github.com/truinsights/voicejournal/internal/pipeline"
)

// InsightsHandler serves the stateless insight extraction endpoint.
type InsightsHandler struct {
	extractor pipeline.Extractor
	log       zerolog.Logger
}

// NewInsightsHandler creates the insight extraction handler.
func NewInsightsHandler(extractor pipeline.Extractor, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		extractor: extractor,
		log:       log.With().Str("handler", "insights").Logger(),
	}
}

// Routes registers the extraction endpoint.
func (h *InsightsHandler) Routes(r chi.Router) {
	r.Post("/extract-insights", h.Extract)
}

// Extract handles POST /api/v1/extract-insights.
// Accepts {"transcript"}, responds {"extracted"}.
func (h *InsightsHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		WriteError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	ins, err := h.extractor.Extract(r.Context(), req.Transcript)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		var xerr *insights.Error
		if errors.As(err, &xerr) {
			h.log.Warn().Err(err).Msg("extraction failed")
			WriteError(w, http.StatusBadGateway, xerr.Reason)
			return
		}
		h.log.Warn().Err(err).Msg("extraction failed")
		WriteError(w, http.StatusBadGateway, "extraction failed")
		return
	}
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

	WriteJSON(w, http.StatusOK, map[string]any{"extracted": ins})
}
