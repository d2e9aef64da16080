package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" envSeparator:","`

	// Auth backend (GoTrue-style). Empty AuthURL disables the session gate,
	// which is only acceptable for local development.
	AuthURL     string        `env:"AUTH_URL"`
	AuthAnonKey string        `env:"AUTH_ANON_KEY"`
	AuthTimeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`

	// Audio object storage. With S3 unset, recordings land under AudioDir.
	AudioDir string   `env:"AUDIO_DIR" envDefault:"./audio"`
	S3       S3Config `envPrefix:"S3_"`

	// Speech-to-text (OpenAI-compatible audio transcriptions endpoint).
	TranscribeURL     string        `env:"TRANSCRIBE_URL" envDefault:"https://api.groq.com/openai/v1/audio/transcriptions"`
	TranscribeAPIKey  string        `env:"TRANSCRIBE_API_KEY"`
	TranscribeModel   string        `env:"TRANSCRIBE_MODEL" envDefault:"whisper-large-v3-turbo"`
	TranscribeLang    string        `env:"TRANSCRIBE_LANGUAGE" envDefault:"en"`
	TranscribeTimeout time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"120s"`

	// Insight extraction LLM.
	InsightsProvider string        `env:"INSIGHTS_PROVIDER" envDefault:"anthropic"` // "anthropic" or "openai"
	InsightsAPIKey   string        `env:"INSIGHTS_API_KEY"`
	InsightsModel    string        `env:"INSIGHTS_MODEL" envDefault:"claude-sonnet-4-20250514"`
	InsightsTimeout  time.Duration `env:"INSIGHTS_TIMEOUT" envDefault:"60s"`

	// Processing pipeline.
	PipelineWorkers   int  `env:"PIPELINE_WORKERS" envDefault:"2"`
	PipelineQueueSize int  `env:"PIPELINE_QUEUE_SIZE" envDefault:"64"`
	MockProviders     bool `env:"MOCK_PROVIDERS" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// S3Config configures the S3-compatible audio object store.
type S3Config struct {
	Endpoint      string        `env:"ENDPOINT"`
	Region        string        `env:"REGION" envDefault:"us-east-1"`
	Bucket        string        `env:"BUCKET"`
	AccessKey     string        `env:"ACCESS_KEY"`
	SecretKey     string        `env:"SECRET_KEY"`
	Prefix        string        `env:"PREFIX"`
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" envDefault:"1h"`
}

// Enabled reports whether S3 storage is configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	AudioDir    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	// Parse environment variables into config struct
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.AudioDir != "" {
		cfg.AudioDir = overrides.AudioDir
	}

	return cfg, nil
}
