// Command server runs the vibewall web client.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibewall/internal/config"
	"vibewall/internal/observability"
	"vibewall/internal/server"

	"github.com/gofiber/fiber/v2"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.InitLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "vibewall",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "vibewall",
		BodyLimit:    (cfg.AvatarMaxUploadMB + 1) << 20,
		ErrorHandler: srv.ErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server resource shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("server starting", slog.String("port", cfg.Port), slog.String("api", cfg.APIBaseURL))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
