package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/laundry")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("expected default access TTL 24h, got %v", cfg.AccessTokenTTL)
	}
	if !cfg.SeedOwner {
		t.Fatalf("expected SeedOwner default true")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DATABASE_URL missing")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/laundry")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET missing")
	}
}

func TestGetDurationAcceptsBareSeconds(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != 90*time.Second {
		t.Fatalf("expected 90s, got %v", cfg.AccessTokenTTL)
	}
}

func TestGetDurationAcceptsGoSyntax(t *testing.T) {
	setRequired(t)
	t.Setenv("REFRESH_TOKEN_TTL", "72h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RefreshTokenTTL != 72*time.Hour {
		t.Fatalf("expected 72h, got %v", cfg.RefreshTokenTTL)
	}
}
