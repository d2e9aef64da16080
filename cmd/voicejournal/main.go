package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/truinsights/voicejournal/internal/api"
	"github.com/truinsights/voicejournal/internal/auth"
	"github.com/truinsights/voicejournal/internal/config"
	"github.com/truinsights/voicejournal/internal/database"
	"github.com/truinsights/voicejournal/internal/insights"
	"github.com/truinsights/voicejournal/internal/pipeline"
	"github.com/truinsights/voicejournal/internal/storage"
	"github.com/truinsights/voicejournal/internal/transcribe"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace..error)")
	flag.StringVar(&overrides.DatabaseURL, "db", "", "postgres connection url")
	flag.StringVar(&overrides.AudioDir, "audio-dir", "", "local audio directory")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("voicejournal starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	storeLog := log.With().Str("component", "storage").Logger()
	audio, err := storage.New(cfg.S3, cfg.AudioDir, storeLog)
	if err != nil {
		log.Fatal().Err(err).Msg("audio storage init failed")
	}
	log.Info().Str("backend", audio.Type()).Msg("audio storage ready")

	transcriber, completer := buildProviders(cfg, log)
	extractor := insights.NewExtractor(completer)

	queue := pipeline.New(pipeline.Options{
		Store:       db,
		Audio:       audio,
		Transcriber: transcriber,
		Extractor:   extractor,
		Workers:     cfg.PipelineWorkers,
		QueueSize:   cfg.PipelineQueueSize,
		Log:         log.With().Str("component", "pipeline").Logger(),
	})
	queue.Start()

	authc := buildAuth(cfg, log)

	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, api.Deps{
		DB:          db,
		Audio:       audio,
		Queue:       queue,
		Transcriber: transcriber,
		Extractor:   extractor,
		Auth:        authc,
	}, version, startTime, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	// Drain queued processing after the HTTP server stops accepting work.
	queue.Stop()

	log.Info().Msg("voicejournal stopped")
}

func buildProviders(cfg *config.Config, log zerolog.Logger) (transcribe.Provider, insights.Completer) {
	if cfg.MockProviders {
		log.Warn().Msg("mock providers enabled, no external calls will be made")
		return transcribe.MockProvider{}, insights.MockCompleter{}
	}

	transcriber := transcribe.NewWhisperClient(
		cfg.TranscribeURL, cfg.TranscribeAPIKey, cfg.TranscribeModel, cfg.TranscribeLang, cfg.TranscribeTimeout)

	var completer insights.Completer
	switch cfg.InsightsProvider {
	case "openai":
		completer = insights.NewOpenAIClient(cfg.InsightsAPIKey, cfg.InsightsModel)
	default:
		completer = insights.NewAnthropicClient(cfg.InsightsAPIKey, cfg.InsightsModel, cfg.InsightsTimeout)
	}

	log.Info().
		Str("transcriber", transcriber.Model()).
		Str("extractor", completer.Name()+"/"+completer.Model()).
		Msg("providers configured")
	return transcriber, completer
}

func buildAuth(cfg *config.Config, log zerolog.Logger) *auth.Client {
	if cfg.AuthURL == "" {
		log.Warn().Msg("no auth backend configured, session gate disabled")
		return nil
	}
	return auth.NewClient(cfg.AuthURL, cfg.AuthAnonKey, cfg.AuthTimeout)
}
