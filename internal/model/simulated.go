package model

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/tempoair/airservice/internal/airquality"
)

// Provider names reported in logs, metrics and ops status.
const (
	ProviderSimulated = "simulated"
	ProviderArtifact  = "artifact"
)

// Simulated evaluates a trig-noise artifact. It is safe for concurrent use:
// the artifact is read-only and a seeded random source is guarded by a mutex.
type Simulated struct {
	name     string
	artifact Artifact

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a model from the default coefficients.
func NewSimulated() *Simulated {
	m, _ := newFromArtifact(ProviderSimulated, DefaultArtifact()) //nolint:errcheck // default artifact is valid
	return m
}

// NewFromArtifact creates a model evaluating the given artifact.
func NewFromArtifact(a Artifact) (*Simulated, error) {
	return newFromArtifact(ProviderArtifact, a)
}

// NewFromArtifactFile loads the artifact at path and creates a model from it.
func NewFromArtifactFile(path string) (*Simulated, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return newFromArtifact(ProviderArtifact, a)
}

func newFromArtifact(name string, a Artifact) (*Simulated, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	m := &Simulated{name: name, artifact: a}
	if a.Seed != nil {
		m.rng = rand.New(rand.NewPCG(*a.Seed, *a.Seed)) //nolint:gosec // simulation noise
	}
	return m, nil
}

// Name returns the provider name of the model.
func (m *Simulated) Name() string {
	return m.name
}

// Artifact returns the artifact the model evaluates.
func (m *Simulated) Artifact() Artifact {
	return m.artifact
}

// Predict implements airquality.ModelPort.
func (m *Simulated) Predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DecodeRaw(m.Evaluate(coords.Lat(), coords.Lon()))
}

// Evaluate produces the raw output for (lat, lon). The trig terms take the
// degree values as given, without conversion to radians.
func (m *Simulated) Evaluate(lat, lon float64) RawOutput {
	base := math.Sin(lat) + math.Cos(lon)

	out := make(RawOutput, len(m.artifact.Outputs))
	for _, o := range m.artifact.Outputs {
		v := math.Abs(base*o.Scale + m.uniform(o.NoiseMin, o.NoiseMax))
		out[o.Key] = airquality.Round(v, o.Precision)
	}
	return out
}

// uniform returns a value in [lo, hi].
func (m *Simulated) uniform(lo, hi float64) float64 {
	var r float64
	if m.rng != nil {
		m.mu.Lock()
		r = m.rng.Float64()
		m.mu.Unlock()
	} else {
		r = rand.Float64() //nolint:gosec // simulation noise
	}
	return lo + (hi-lo)*r
}
