package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/repairs")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("SMTP_HOST", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GetCancellationCutoff() != 2*time.Hour {
		t.Errorf("cutoff = %v, want 2h", cfg.GetCancellationCutoff())
	}
	if cfg.GetSchedulingLocation() != time.UTC {
		t.Errorf("location = %v, want UTC", cfg.GetSchedulingLocation())
	}
	if cfg.GetEmailEnabled() {
		t.Error("email must be disabled without SMTP_HOST")
	}
	if cfg.IsMinIOEnabled() {
		t.Error("minio must be disabled without MINIO_ENDPOINT")
	}
}

func TestLoadRejectsMissingDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCHEDULING_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestLoadRejectsCredentialedWildcardCORS(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when wildcard CORS is combined with credentials")
	}
}
