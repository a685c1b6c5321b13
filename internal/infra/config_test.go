package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without GEMINI_API_KEY")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ImageModel != "gemini-2.5-flash-image" {
		t.Fatalf("ImageModel = %q", cfg.ImageModel)
	}
	if cfg.VideoModel != "veo-3.1-fast-generate-preview" {
		t.Fatalf("VideoModel = %q", cfg.VideoModel)
	}
	if cfg.AnimatePollInterval != 8*time.Second {
		t.Fatalf("AnimatePollInterval = %v", cfg.AnimatePollInterval)
	}
	if cfg.AnimateDeadline != 600*time.Second {
		t.Fatalf("AnimateDeadline = %v", cfg.AnimateDeadline)
	}
	if cfg.HTTPWriteTimeout <= cfg.AnimateDeadline {
		t.Fatal("write timeout must outlast the animate deadline")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9999")
	t.Setenv("GEMINI_IMAGE_MODEL", "custom-image-model")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "9999" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.ImageModel != "custom-image-model" {
		t.Fatalf("ImageModel = %q", cfg.ImageModel)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.RateLimitPerMin != 5 {
		t.Fatalf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
}
