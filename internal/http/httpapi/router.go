package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cinematica/internal/http/handlers"
	"cinematica/internal/middleware"
)

// NewRouter wires the five gateway endpoints. Routes are POST-only; chi
// answers 405 for any other method on a known path.
func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/generate-keyframe", app.GenerateKeyframe)
	r.Post("/v1/edit-image", app.EditImage)
	r.Post("/v1/animate-start", app.AnimateStart)
	r.Post("/v1/animate-status", app.AnimateStatus)
	r.Post("/v1/animate-image", app.AnimateImage)

	return r
}
