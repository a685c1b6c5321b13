package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	// GeminiAPIKey is the only copy of the credential in the process. It is
	// injected into the generative adapter at startup and never serialized
	// into any response payload.
	GeminiAPIKey string
	ImageModel   string
	VideoModel   string

	AllowedOrigins  []string
	RateLimitPerMin int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// AnimatePollInterval paces the server-side poll loop of the blocking
	// animate endpoint. AnimateDeadline caps how long that endpoint may wait
	// for the render before reporting a timeout.
	AnimatePollInterval time.Duration
	AnimateDeadline     time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		ImageModel:      getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		VideoModel:      getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout: time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		// The blocking animate endpoint holds its connection open for the
		// whole video render, so the write timeout must outlast the animate
		// deadline.
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 660)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		AnimatePollInterval: time.Second * time.Duration(getEnvInt("ANIMATE_POLL_INTERVAL_SECONDS", 8)),
		AnimateDeadline:     time.Second * time.Duration(getEnvInt("ANIMATE_DEADLINE_SECONDS", 600)),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
