package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/stylens")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.CreditCost != 100 {
		t.Fatalf("CreditCost = %d", cfg.CreditCost)
	}
	if cfg.GenerationModel != "google/gemini-3-pro-image-preview" {
		t.Fatalf("GenerationModel = %q", cfg.GenerationModel)
	}
	if cfg.HTTPWriteTimeout != 120*time.Second {
		t.Fatalf("HTTPWriteTimeout = %s", cfg.HTTPWriteTimeout)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigRequiredVars(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("SUPABASE_JWT_SECRET", "secret")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/db")
		t.Setenv("SUPABASE_JWT_SECRET", "")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("non-positive credit cost", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CREDIT_COST", "0")
		if _, err := LoadConfig(); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://stylens.app, https://admin.stylens.app")
	t.Setenv("CREDIT_COST", "250")
	t.Setenv("R2_PUBLIC_DOMAIN", "https://img.stylens.app/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://admin.stylens.app" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.CreditCost != 250 {
		t.Fatalf("CreditCost = %d", cfg.CreditCost)
	}
	if cfg.R2PublicDomain != "https://img.stylens.app" {
		t.Fatalf("R2PublicDomain = %q (trailing slash must be trimmed)", cfg.R2PublicDomain)
	}
}
