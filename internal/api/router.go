// Package api provides the HTTP API for the air quality service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/api/handler"
	"github.com/tempoair/airservice/internal/api/mapper"
	"github.com/tempoair/airservice/internal/api/middleware"
	"github.com/tempoair/airservice/internal/api/response"
	"github.com/tempoair/airservice/internal/auth"
	"github.com/tempoair/airservice/internal/featureflags"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool
	Clock       clockwork.Clock

	// Predictor runs predictions. When it also implements
	// handler.ReadinessChecker it backs the readiness probe.
	Predictor   handler.Predictor
	Assessments handler.AssessmentRecorder
	Providers   handler.ProviderHealthSource

	// FeatureFlagService defaults to an in-memory service.
	FeatureFlagService *featureflags.Service

	// TokenValidator guards status and admin endpoints. Without one those
	// endpoints reject every request.
	TokenValidator middleware.TokenValidator
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "airservice-api"
	}

	flags := cfg.FeatureFlagService
	if flags == nil {
		flags = featureflags.NewService(featureflags.ServiceConfig{
			Repository: featureflags.NewInMemoryRepository(),
			Logger:     cfg.Logger,
		})
	}

	validator := cfg.TokenValidator
	if validator == nil {
		validator = rejectAllTokens{}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	readiness, _ := cfg.Predictor.(handler.ReadinessChecker)

	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Readiness: readiness,
		Providers: cfg.Providers,
		Flags:     flags,
		Clock:     cfg.Clock,
	})
	predictHandler := handler.NewPredictHandler(handler.PredictHandlerConfig{
		Predictor: cfg.Predictor,
		Mapper:    mapper.NewResponseMapper(cfg.Clock),
		Flags:     flags,
		Recorder:  cfg.Assessments,
		Logger:    cfg.Logger,
	})
	metadataHandler := handler.NewMetadataHandler()
	featureFlagsHandler := handler.NewFeatureFlagsHandler(flags, cfg.Logger)

	predictLimit := middleware.RateLimitByIP(middleware.PredictRateLimit)
	standardLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	adminLimit := middleware.RateLimitBySubject(middleware.AdminRateLimit)
	opsAuth := middleware.Auth(validator, auth.ScopeOpsRead)
	adminAuth := middleware.Auth(validator, auth.ScopeFlagsWrite)

	// Legacy endpoints
	r.Get("/health", opsHandler.LegacyHealth)
	r.With(predictLimit, middleware.RequireJSON).Post("/api/predict", predictHandler.Predict)

	r.Route("/v1", func(r chi.Router) {
		r.With(predictLimit, middleware.RequireJSON).Post("/predict", predictHandler.Predict)

		// Ops endpoints (public except status)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(opsAuth, adminLimit).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardLimit)
			r.Get("/thresholds", metadataHandler.GetThresholds)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(adminLimit)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.With(middleware.RequireJSON).Put("/", featureFlagsHandler.UpsertFeatureFlag)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}

type rejectAllTokens struct{}

func (rejectAllTokens) ValidateServiceToken(string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}
