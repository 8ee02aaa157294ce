package model

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tempoair/airservice/internal/airquality"
)

// FlagChecker reports whether a boolean feature flag is on.
type FlagChecker interface {
	IsEnabled(ctx context.Context, key string) bool
}

// Switch routes predictions to a fallback model while a feature flag is on.
type Switch struct {
	primary  airquality.ModelPort
	fallback airquality.ModelPort
	flags    FlagChecker
	flagKey  string
}

// NewSwitch creates a Switch. A nil flags checker always uses primary.
func NewSwitch(primary, fallback airquality.ModelPort, flags FlagChecker, flagKey string) *Switch {
	return &Switch{
		primary:  primary,
		fallback: fallback,
		flags:    flags,
		flagKey:  flagKey,
	}
}

// Predict implements airquality.ModelPort.
func (s *Switch) Predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	if s.flags != nil && s.fallback != nil && s.flags.IsEnabled(ctx, s.flagKey) {
		return s.fallback.Predict(ctx, coords)
	}
	return s.primary.Predict(ctx, coords)
}

// Recorder receives timing for each model call.
type Recorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// Instrumented reports the latency and outcome of every Predict call.
type Instrumented struct {
	next     airquality.ModelPort
	provider string
	recorder Recorder
	clock    clockwork.Clock
}

// NewInstrumented wraps next so each call is reported to recorder under provider.
// A nil clock means the real clock.
func NewInstrumented(next airquality.ModelPort, provider string, recorder Recorder, clock clockwork.Clock) *Instrumented {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Instrumented{next: next, provider: provider, recorder: recorder, clock: clock}
}

// Predict implements airquality.ModelPort.
func (m *Instrumented) Predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	start := m.clock.Now()
	prediction, err := m.next.Predict(ctx, coords)
	if m.recorder != nil {
		m.recorder.RecordRequest(m.provider, "predict", m.clock.Since(start), err)
	}
	return prediction, err
}
