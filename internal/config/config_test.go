package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Path != "champtrack.db" {
		t.Errorf("database path = %v, want champtrack.db", cfg.Database.Path)
	}
	if cfg.API.Address != ":8080" {
		t.Errorf("api address = %v, want :8080", cfg.API.Address)
	}
	if cfg.Detector.Window != 24*time.Hour {
		t.Errorf("detector window = %v, want 24h", cfg.Detector.Window)
	}
	if cfg.Dispatch.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", cfg.Dispatch.BatchSize)
	}
	if cfg.Refresh.Workers != 4 {
		t.Errorf("refresh workers = %d, want 4", cfg.Refresh.Workers)
	}
	if cfg.Scheduler.DetectInterval != time.Hour {
		t.Errorf("detect interval = %v, want 1h", cfg.Scheduler.DetectInterval)
	}
}

func TestLoad_FromFile(t *testing.T) {
	content := `
database:
  path: /tmp/champtrack-test.db
api:
  address: ":9090"
detector:
  window: 48h
dispatch:
  batch_size: 10
  rate_per_minute: 30
providers:
  google:
    client_id: gcid
    client_secret: gsecret
  hubspot_redirect_uri: https://app.example.com/oauth
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Path != "/tmp/champtrack-test.db" {
		t.Errorf("database path = %v", cfg.Database.Path)
	}
	if cfg.API.Address != ":9090" {
		t.Errorf("api address = %v, want :9090", cfg.API.Address)
	}
	if cfg.Detector.Window != 48*time.Hour {
		t.Errorf("detector window = %v, want 48h", cfg.Detector.Window)
	}
	if cfg.Dispatch.BatchSize != 10 {
		t.Errorf("batch size = %d, want 10", cfg.Dispatch.BatchSize)
	}
	if cfg.Dispatch.RatePerMinute != 30 {
		t.Errorf("rate per minute = %d, want 30", cfg.Dispatch.RatePerMinute)
	}
	if cfg.Providers.Google.ClientID != "gcid" {
		t.Errorf("google client id = %v, want gcid", cfg.Providers.Google.ClientID)
	}
	if cfg.Providers.HubSpotRedirectURI != "https://app.example.com/oauth" {
		t.Errorf("hubspot redirect = %v", cfg.Providers.HubSpotRedirectURI)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHAMPTRACK_DB_PATH", "/tmp/env-override.db")
	t.Setenv("CHAMPTRACK_JWT_SECRET", "env-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "env-gcid")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.Path != "/tmp/env-override.db" {
		t.Errorf("database path = %v, want env override", cfg.Database.Path)
	}
	if cfg.API.JWTSecret != "env-secret" {
		t.Errorf("jwt secret = %v, want env-secret", cfg.API.JWTSecret)
	}
	if cfg.Providers.Google.ClientID != "env-gcid" {
		t.Errorf("google client id = %v, want env-gcid", cfg.Providers.Google.ClientID)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("load should fail for a missing file")
	}
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Default()
	cfg.Dispatch.RatePerMinute = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("validate should reject a negative rate")
	}
}
