package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadViewerDefaults(t *testing.T) {
	cfg, err := LoadViewer()
	if err != nil {
		t.Fatalf("load viewer: %v", err)
	}
	if cfg.APIBase != "http://127.0.0.1:8000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.PollInterval != 1200*time.Millisecond {
		t.Errorf("PollInterval = %s, want 1.2s", cfg.PollInterval)
	}
	if cfg.MaxAssetBytes != 256<<20 {
		t.Errorf("MaxAssetBytes = %d", cfg.MaxAssetBytes)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadViewerOverrides(t *testing.T) {
	t.Setenv("COSMOS_API_BASE", " http://render.local:9000/ ")
	t.Setenv("COSMOS_POLL_INTERVAL", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadViewer()
	if err != nil {
		t.Fatalf("load viewer: %v", err)
	}
	if cfg.APIBase != "http://render.local:9000" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %s", cfg.PollInterval)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadViewerRejectsZeroInterval(t *testing.T) {
	t.Setenv("COSMOS_POLL_INTERVAL", "0s")
	if _, err := LoadViewer(); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

func TestLoadAPIRequiresConnections(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	_, err := LoadAPI()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadWorker(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://cosmos@localhost/cosmos")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RENDERER_HTTP_BASEURL", "http://renderer:8080/")
	t.Setenv("STORAGE_PROVIDER", " GDrive ")

	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("load worker: %v", err)
	}
	if cfg.QueueName != "cosmos:renders" {
		t.Errorf("QueueName = %q", cfg.QueueName)
	}
	if cfg.RendererBaseURL != "http://renderer:8080" {
		t.Errorf("RendererBaseURL = %q", cfg.RendererBaseURL)
	}
	if cfg.Storage.ProviderName() != "gdrive" {
		t.Errorf("ProviderName = %q", cfg.Storage.ProviderName())
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("COSMOS_MAX_ASSET_BYTES", "lots")
	if _, err := LoadViewer(); err == nil {
		t.Fatal("expected error for malformed int")
	}
}
