package handler

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/tempoair/airservice/internal/api/models"
	"github.com/tempoair/airservice/internal/api/response"
	"github.com/tempoair/airservice/internal/provider/resilience"
)

// ReadinessChecker reports whether the prediction pipeline can serve.
type ReadinessChecker interface {
	Ready() bool
}

// ProviderHealthSource lists model provider health. *resilience.Registry implements it.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// ActiveFlagLister lists enabled feature flags. *featureflags.Service implements it.
type ActiveFlagLister interface {
	ActiveFlags(ctx context.Context) []string
}

// OpsHandlerConfig holds dependencies for OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	Readiness ReadinessChecker
	Providers ProviderHealthSource
	Flags     ActiveFlagLister
	Clock     clockwork.Clock
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	readiness ReadinessChecker
	providers ProviderHealthSource
	flags     ActiveFlagLister
	clock     clockwork.Clock
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		readiness: cfg.Readiness,
		providers: cfg.Providers,
		flags:     cfg.Flags,
		clock:     clock,
	}
}

// LegacyHealth handles GET /health.
func (h *OpsHandler) LegacyHealth(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, models.LegacyHealth{Status: "ok"})
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.clock.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The service is ready once a model is wired in.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.readiness == nil || !h.readiness.Ready() {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Health{
			Status:  models.HealthStatusFail,
			Time:    models.Timestamp(h.clock.Now()),
			Details: map[string]any{"model": "not configured"},
		})
		return
	}

	response.OK(w, r, models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(h.clock.Now()),
		Details: map[string]any{"model": "ready"},
	})
}

// SystemStatus handles GET /v1/ops/status - model provider and flag status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(h.clock.Now()),
		Version:   h.version,
		Providers: []models.ProviderStatus{},
	}

	var unhealthy, degraded int
	if h.providers != nil {
		for _, ph := range h.providers.GetAllHealth() {
			ps := providerStatus(ph)
			switch ps.Status {
			case models.HealthStatusFail:
				unhealthy++
			case models.HealthStatusDegraded:
				degraded++
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.flags != nil {
		status.ActiveDegradationFlags = h.flags.ActiveFlags(r.Context())
	}

	switch {
	case len(status.Providers) > 0 && unhealthy == len(status.Providers):
		status.Status = models.HealthStatusFail
	case unhealthy > 0 || degraded > 0 || len(status.ActiveDegradationFlags) > 0:
		status.Status = models.HealthStatusDegraded
	}

	response.OK(w, r, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      ph.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  ph.CircuitState.String(),
		Requests:      ph.Counts.Requests,
		Failures:      ph.Counts.TotalFailures,
		LastSuccessAt: models.NewTimestamp(ph.LastSuccessAt),
		LastFailureAt: models.NewTimestamp(ph.LastFailureAt),
	}
	switch ph.Status() {
	case resilience.StatusUnhealthy:
		ps.Status = models.HealthStatusFail
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
