package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"cinematica/internal/gemini"
	"cinematica/internal/infra"
	"cinematica/internal/middleware"
)

// Generator is the slice of the generative adapter the gateway consumes.
// Handlers stay stateless; everything they need arrives through this
// interface and the injected config.
type Generator interface {
	GenerateKeyframe(ctx context.Context, prompt, styleSuffix string) (*gemini.Media, error)
	EditImage(ctx context.Context, image gemini.Media, instruction string) (*gemini.Media, error)
	StartAnimation(ctx context.Context, image gemini.Media, prompt string) (string, error)
	AnimationStatus(ctx context.Context, operationName string) (*gemini.AnimationStatus, error)
	Animate(ctx context.Context, image gemini.Media, prompt string, pollInterval time.Duration) (*gemini.Media, error)
}

type App struct {
	Config    *infra.Config
	Logger    zerolog.Logger
	Generator Generator
}

func NewApp(cfg *infra.Config, logger zerolog.Logger, generator Generator) *App {
	return &App{Config: cfg, Logger: logger, Generator: generator}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: message, Code: code})
}

// upstreamError converts an adapter failure into a generic 500-class payload.
// The classified kind travels as the machine code; the underlying detail is
// logged and never leaves the server.
func (a *App) upstreamError(w http.ResponseWriter, r *http.Request, err error, message string) {
	kind := gemini.KindOf(err)
	status := http.StatusBadGateway
	if kind == gemini.KindTimeout {
		status = http.StatusGatewayTimeout
	}
	a.Logger.Error().
		Err(err).
		Str("kind", string(kind)).
		Str("path", r.URL.Path).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("upstream generation failed")
	a.error(w, status, string(kind), message)
}

func (a *App) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
