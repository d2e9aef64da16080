package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/auth"
	"github.com/truinsights/voicejournal/internal/config"
	"github.com/truinsights/voicejournal/internal/database"
	"github.com/truinsights/voicejournal/internal/metrics"
	"github.com/truinsights/voicejournal/internal/pipeline"
	"github.com/truinsights/voicejournal/internal/storage"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

// Deps bundles the services the HTTP layer fronts.
type Deps struct {
	DB          *database.DB
	Audio       storage.AudioStore
	Queue       *pipeline.WorkerPool
	Transcriber transcribe.Provider
	Extractor   pipeline.Extractor
	Auth        *auth.Client // nil disables the session gate
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, deps Deps, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", promhttp.Handler())

	health := NewHealthHandler(deps.DB, deps.Audio.Type(),
		providerLabel(deps.Transcriber), extractorLabel(deps.Extractor),
		deps.Auth != nil, version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		MockRoutes(r)

		r.Group(func(r chi.Router) {
			if deps.Auth != nil {
				r.Use(SessionAuth(deps.Auth))
			} else {
				r.Use(DevSession())
			}

			NewTranscribeHandler(deps.Transcriber, log).Routes(r)
			NewInsightsHandler(deps.Extractor, log).Routes(r)
			NewJournalsHandler(deps.DB, deps.Audio, deps.Queue, log).Routes(r)

			var revoker SessionRevoker
			if deps.Auth != nil {
				revoker = deps.Auth
			}
			r.Post("/auth/signout", SignOutHandler(revoker))
		})
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}

func providerLabel(p transcribe.Provider) string {
	return p.Name() + "/" + p.Model()
}

func extractorLabel(e pipeline.Extractor) string {
	type named interface {
		Name() string
		Model() string
	}
	if n, ok := e.(named); ok {
		return n.Name() + "/" + n.Model()
	}
	return "configured"
}
