// Package main provides the entrypoint for the air service API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/api"
	"github.com/tempoair/airservice/internal/api/middleware"
	"github.com/tempoair/airservice/internal/auth"
	"github.com/tempoair/airservice/internal/config"
	"github.com/tempoair/airservice/internal/featureflags"
	"github.com/tempoair/airservice/internal/model/backend"
	"github.com/tempoair/airservice/internal/provider/resilience"
	"github.com/tempoair/airservice/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// devSigningKey is only used outside production when JWT_SIGNING_KEY is unset.
const devSigningKey = "local-dev-signing-key-change-in-production"

func main() {
	const serviceName = "airservice-api"

	envFileErr := godotenv.Load()

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if envFileErr == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting air service API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	predictionMetrics, err := middleware.NewPredictionMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize prediction metrics")
	}

	// Initialize feature flags repository and service
	ffRepo, closeFlags, err := featureflags.OpenRepository(ctx, cfg.FeatureFlagsBackend, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open feature flag store")
	}
	defer closeFlags()

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   cfg.FeatureFlagsTTL,
	})
	log.Info().Str("backend", cfg.FeatureFlagsBackend).Msg("feature flags service initialized")

	// Build the model port
	registry := resilience.NewRegistry()
	port, err := backend.New(backend.Config{
		Backend:      cfg.ModelBackend,
		ArtifactPath: cfg.ModelPath,
		RemoteURL:    cfg.ModelServiceURL,
		Timeout:      cfg.ModelTimeout,
		Registry:     registry,
		Flags:        ffService,
		FallbackFlag: featureflags.FlagForceSimulatedModel,
		Recorder:     predictionMetrics,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.ModelBackend).Msg("failed to build model")
	}
	log.Info().
		Str("backend", cfg.ModelBackend).
		Str("provider", port.Primary).
		Msg("model loaded")

	predictor := airquality.NewPredictUseCase(airquality.PredictUseCaseConfig{
		Model:  port,
		Logger: log,
	})

	// Initialize JWT service for ops and admin endpoints
	signingKey := cfg.JWTSigningKey
	if signingKey == "" {
		signingKey = devSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService, err := auth.NewJWTService(auth.JWTConfig{SigningKey: signingKey})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT service")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		RequireTLS:         cfg.RequireTLS,
		Predictor:          predictor,
		Assessments:        predictionMetrics,
		Providers:          registry,
		FeatureFlagService: ffService,
		TokenValidator:     jwtService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ModelTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
