// Package main provides the entrypoint for the batch assessment worker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/config"
	"github.com/tempoair/airservice/internal/featureflags"
	"github.com/tempoair/airservice/internal/model/backend"
	"github.com/tempoair/airservice/internal/provider/resilience"
	"github.com/tempoair/airservice/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

type healthResponse struct {
	Status     string         `json:"status"`
	Version    string         `json:"version"`
	LastRunAt  *time.Time     `json:"last_run_at,omitempty"`
	Successful int            `json:"successful,omitempty"`
	Failed     int            `json:"failed,omitempty"`
	Bands      map[string]int `json:"bands,omitempty"`
}

func main() {
	const serviceName = "airservice-worker"

	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.LogLevel)

	log.Info().Str("build_time", BuildTime).Msg("starting air service worker")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	port, err := backend.New(backend.Config{
		Backend:      cfg.ModelBackend,
		ArtifactPath: cfg.ModelPath,
		RemoteURL:    cfg.ModelServiceURL,
		Timeout:      cfg.ModelTimeout,
		Registry:     resilience.NewRegistry(),
		Flags:        ffService,
		FallbackFlag: featureflags.FlagForceSimulatedModel,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.ModelBackend).Msg("failed to build model")
	}

	predictor := airquality.NewPredictUseCase(airquality.PredictUseCaseConfig{
		Model:  port,
		Logger: log,
	})

	metrics := worker.NewMetrics()

	assessCfg := worker.DefaultAssessConfig()
	assessCfg.Concurrency = cfg.WorkerConcurrency
	assessCfg.Timeout = cfg.ModelTimeout
	assessJob := worker.NewAssessJob(worker.AssessJobConfig{
		Config:    assessCfg,
		Predictor: predictor,
		Metrics:   metrics,
		Logger:    log,
	})

	jobs := worker.NewJobHandler(worker.JobHandlerConfig{
		AssessJob: assessJob,
		Flags:     ffService,
		Metrics:   metrics,
		Logger:    log,
	})

	// Health and metrics endpoints for Cloud Run
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: "healthy", Version: Version}
		if last := assessJob.LastResult(); last != nil {
			resp.LastRunAt = &last.EndTime
			resp.Successful = last.Successful
			resp.Failed = last.Failed
			resp.Bands = last.Bands
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSubProjectID == "" {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set, not consuming jobs")
	} else {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			Jobs:             jobs,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := handler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
