package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidArtifact is returned when a model artifact cannot be used.
var ErrInvalidArtifact = errors.New("invalid model artifact")

// KindTrigNoise is the only artifact kind this service can evaluate:
// value = |(sin(lat) + cos(lon)) * scale + U(noise_min, noise_max)|.
const KindTrigNoise = "trig_noise"

// Artifact is a serialized model description loaded once at startup.
type Artifact struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Kind    string         `json:"kind"`
	Outputs []OutputSpec   `json:"outputs"`
	Seed    *uint64        `json:"seed,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// OutputSpec describes how one raw output field is produced.
type OutputSpec struct {
	// Key is the raw output key, one of OutputKeys.
	Key string `json:"key"`

	// Scale multiplies the location base term.
	Scale float64 `json:"scale"`

	// NoiseMin and NoiseMax bound the uniform noise term.
	NoiseMin float64 `json:"noise_min"`
	NoiseMax float64 `json:"noise_max"`

	// Precision is the number of decimals the model rounds its output to.
	Precision int `json:"precision"`
}

// DefaultArtifact returns the coefficients of the reference simulated model.
func DefaultArtifact() Artifact {
	return Artifact{
		Name:    "air_model",
		Version: "1",
		Kind:    KindTrigNoise,
		Outputs: []OutputSpec{
			{Key: KeyNitrogenDioxide, Scale: 25, NoiseMin: 10, NoiseMax: 50, Precision: 2},     // µg/m³
			{Key: KeyFormaldehyde, Scale: 0.005, NoiseMin: 0.002, NoiseMax: 0.02, Precision: 4}, // mg/m³
			{Key: KeyAerosolIndex, Scale: 0.3, NoiseMin: 0.5, NoiseMax: 1.2, Precision: 3},
			{Key: KeyParticulateMatter, Scale: 20, NoiseMin: 5, NoiseMax: 60, Precision: 2}, // µg/m³
		},
	}
}

// Validate checks that the artifact can be evaluated.
func (a Artifact) Validate() error {
	if a.Kind != KindTrigNoise {
		return fmt.Errorf("%w: unsupported kind %q", ErrInvalidArtifact, a.Kind)
	}

	seen := make(map[string]bool, len(a.Outputs))
	for _, o := range a.Outputs {
		if seen[o.Key] {
			return fmt.Errorf("%w: duplicate output %q", ErrInvalidArtifact, o.Key)
		}
		seen[o.Key] = true
		if o.NoiseMin > o.NoiseMax {
			return fmt.Errorf("%w: output %q noise_min > noise_max", ErrInvalidArtifact, o.Key)
		}
		if o.Precision < 0 || o.Precision > 10 {
			return fmt.Errorf("%w: output %q precision %d out of range", ErrInvalidArtifact, o.Key, o.Precision)
		}
	}

	for _, key := range OutputKeys {
		if !seen[key] {
			return fmt.Errorf("%w: missing output %q", ErrInvalidArtifact, key)
		}
	}
	return nil
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// WriteArtifact validates a and writes it to path, creating parent directories.
func WriteArtifact(path string, a Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // artifacts are not secret
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}
