// Package backend assembles the model port the service runs with.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/config"
	"github.com/tempoair/airservice/internal/model"
	"github.com/tempoair/airservice/internal/model/remote"
	"github.com/tempoair/airservice/internal/provider/resilience"
)

// Config holds what is needed to build a model port.
type Config struct {
	// Backend is one of the config.ModelBackend* values.
	Backend      string
	ArtifactPath string
	RemoteURL    string
	Timeout      time.Duration

	// Registry tracks every model provider. Required.
	Registry *resilience.Registry

	// Flags and FallbackFlag route calls to the simulated model while the flag is on. Optional.
	Flags        model.FlagChecker
	FallbackFlag string

	// Recorder receives per-call latency. Optional.
	Recorder model.Recorder

	// Clock times recorded calls. Defaults to the real clock.
	Clock clockwork.Clock
}

// Port is a built model port and the name of its primary provider.
type Port struct {
	airquality.ModelPort
	Primary string
}

// New builds the primary model for cfg.Backend and puts it behind a flag
// controlled switch to the simulated model.
func New(cfg Config) (*Port, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("model registry is required")
	}

	var (
		primary airquality.ModelPort
		name    string
	)
	switch cfg.Backend {
	case config.ModelBackendArtifact:
		m, err := model.NewFromArtifactFile(cfg.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("load model artifact: %w", err)
		}
		name = m.Name()
		primary = reporting(m, name, cfg.Registry)
	case config.ModelBackendSimulated:
		m := model.NewSimulated()
		name = m.Name()
		primary = reporting(m, name, cfg.Registry)
	case config.ModelBackendRemote:
		c := remote.NewClient(remote.ClientConfig{
			BaseURL:  cfg.RemoteURL,
			Timeout:  cfg.Timeout,
			Registry: cfg.Registry,
		})
		name = c.Name()
		primary = c
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}

	var fallback airquality.ModelPort
	if name == model.ProviderSimulated {
		fallback = primary
	} else {
		fallback = reporting(model.NewSimulated(), model.ProviderSimulated, cfg.Registry)
	}

	if cfg.Recorder != nil {
		primary = model.NewInstrumented(primary, name, cfg.Recorder, cfg.Clock)
		fallback = model.NewInstrumented(fallback, model.ProviderSimulated, cfg.Recorder, cfg.Clock)
	}

	return &Port{
		ModelPort: model.NewSwitch(primary, fallback, cfg.Flags, cfg.FallbackFlag),
		Primary:   name,
	}, nil
}

// reporter records the outcome of in-process model calls in the registry so
// ops status covers them like the remote client.
type reporter struct {
	next     airquality.ModelPort
	name     string
	registry *resilience.Registry
}

func reporting(next airquality.ModelPort, name string, registry *resilience.Registry) airquality.ModelPort {
	registry.Register(name, nil)
	return &reporter{next: next, name: name, registry: registry}
}

// Predict implements airquality.ModelPort.
func (r *reporter) Predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	prediction, err := r.next.Predict(ctx, coords)
	if err != nil {
		r.registry.RecordFailure(r.name, err)
		return nil, err
	}
	r.registry.RecordSuccess(r.name)
	return prediction, nil
}
