package config

import (
	"os"
	"testing"
	"time"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	for k, v := range env {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range env {
			os.Unsetenv(k)
		}
	})
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/carelink",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.InviteTTL != 168*time.Hour {
		t.Errorf("expected 7 day invite TTL, got %s", cfg.InviteTTL)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("expected default tenant, got %s", cfg.DefaultTenant)
	}
}

func TestLoad_DatabaseURLRequired(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestValidate_ProductionNeedsSessionSecret(t *testing.T) {
	cfg := &Config{
		Env:        "production",
		AuthIssuer: "https://auth.example.com",
		SessionTTL: time.Hour,
		InviteTTL:  time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing SESSION_SECRET in production")
	}
	cfg.SessionSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_GatewayStoreIDRequired(t *testing.T) {
	cfg := &Config{
		Env:            "development",
		GatewayBaseURL: "https://pay.example.com",
		SessionTTL:     time.Hour,
		InviteTTL:      time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when gateway URL set without store id")
	}
	cfg.GatewayStoreID = "store-1"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_TTLsMustBePositive(t *testing.T) {
	cfg := &Config{Env: "development", SessionTTL: 0, InviteTTL: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero SESSION_TTL")
	}
	cfg = &Config{Env: "development", SessionTTL: time.Hour, InviteTTL: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero INVITE_TTL")
	}
}
