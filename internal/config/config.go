// Package config holds the environment configuration of the cosmos
// processes.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Log configures the root logger of a process.
type Log struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Source bool   `env:"LOG_SOURCE"`
}

// Tracing configures OTLP trace export. An empty endpoint disables it.
type Tracing struct {
	Endpoint string `env:"COSMOS_OTEL_ENDPOINT"`
}

// Viewer configures the client process.
type Viewer struct {
	APIBase        string        `env:"COSMOS_API_BASE"        envDefault:"http://127.0.0.1:8000"`
	Addr           string        `env:"COSMOS_VIEWER_ADDR"     envDefault:"127.0.0.1:5173"`
	PollInterval   time.Duration `env:"COSMOS_POLL_INTERVAL"   envDefault:"1200ms"`
	RequestTimeout time.Duration `env:"COSMOS_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxAssetBytes  int64         `env:"COSMOS_MAX_ASSET_BYTES" envDefault:"268435456"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS"   envSeparator:","`

	Log     Log
	Tracing Tracing
}

// Storage selects and configures the object storage provider.
type Storage struct {
	Provider     string `env:"STORAGE_PROVIDER"      envDefault:"localfs"`
	LocalRoot    string `env:"STORAGE_LOCAL_ROOT"    envDefault:"/data"`
	CleanupLocal bool   `env:"STORAGE_CLEANUP_LOCAL"`

	GDriveClientID     string `env:"GDRIVE_CLIENT_ID"`
	GDriveClientSecret string `env:"GDRIVE_CLIENT_SECRET"`
	GDriveRefreshToken string `env:"GDRIVE_REFRESH_TOKEN"`
	GDriveFolderID     string `env:"GDRIVE_FOLDER_ID"`
}

// ProviderName returns the normalized provider name.
func (s Storage) ProviderName() string {
	return strings.ToLower(strings.TrimSpace(s.Provider))
}

// API configures the render service API.
type API struct {
	Port           string   `env:"HTTP_PORT"            envDefault:"8000"`
	DatabaseURL    string   `env:"DATABASE_URL,required,notEmpty"`
	RedisAddr      string   `env:"REDIS_ADDR,required,notEmpty"`
	QueueName      string   `env:"JOB_QUEUE_NAME"       envDefault:"cosmos:renders"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	Storage Storage
	Log     Log
	Tracing Tracing
}

// Worker configures the render worker.
type Worker struct {
	DatabaseURL     string `env:"DATABASE_URL,required,notEmpty"`
	RedisAddr       string `env:"REDIS_ADDR,required,notEmpty"`
	QueueName       string `env:"JOB_QUEUE_NAME"        envDefault:"cosmos:renders"`
	RendererBaseURL string `env:"RENDERER_HTTP_BASEURL"`

	Storage Storage
	Log     Log
	Tracing Tracing
}

// LoadViewer parses the viewer configuration.
func LoadViewer() (Viewer, error) {
	var cfg Viewer
	if err := ParseEnv(&cfg); err != nil {
		return Viewer{}, err
	}
	if cfg.PollInterval <= 0 {
		return Viewer{}, fmt.Errorf("COSMOS_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	cfg.APIBase = strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	return cfg, nil
}

// LoadAPI parses the render API configuration.
func LoadAPI() (API, error) {
	var cfg API
	if err := ParseEnv(&cfg); err != nil {
		return API{}, err
	}
	return cfg, nil
}

// LoadWorker parses the worker configuration.
func LoadWorker() (Worker, error) {
	var cfg Worker
	if err := ParseEnv(&cfg); err != nil {
		return Worker{}, err
	}
	cfg.RendererBaseURL = strings.TrimRight(strings.TrimSpace(cfg.RendererBaseURL), "/")
	return cfg, nil
}
