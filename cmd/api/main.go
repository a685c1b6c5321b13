package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cinematica/internal/gemini"
	"cinematica/internal/http/handlers"
	"cinematica/internal/http/httpapi"
	"cinematica/internal/infra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	generator, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		ImageModel: cfg.ImageModel,
		VideoModel: cfg.VideoModel,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize generative client")
	}

	app := handlers.NewApp(cfg, logger, generator)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("gateway listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
