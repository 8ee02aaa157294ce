// Package featureflags provides runtime switches for the prediction service.
package featureflags

import (
	"time"
)

// Well-known feature flag keys.
const (
	// FlagDisablePredictions makes the predict endpoints answer 503.
	FlagDisablePredictions = "disable_predictions"

	// FlagForceSimulatedModel routes predictions to the simulated model
	// regardless of the configured backend.
	FlagForceSimulatedModel = "force_simulated_model"

	// FlagPauseBatchAssessment makes the worker acknowledge assessment jobs without running them.
	FlagPauseBatchAssessment = "pause_batch_assessment"
)

// Flag represents a feature flag with its current value.
type Flag struct {
	Key         string    `json:"key"`
	Value       any       `json:"value"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BoolValue returns the flag value as a boolean.
// Returns the default value if the flag is nil or not a boolean.
func (f *Flag) BoolValue(defaultValue bool) bool {
	if f == nil {
		return defaultValue
	}
	switch v := f.Value.(type) {
	case bool:
		return v
	case float64:
		// JSON unmarshals numbers as float64
		return v != 0
	case string:
		switch v {
		case "true", "on", "1":
			return true
		case "false", "off", "0":
			return false
		}
		return defaultValue
	default:
		return defaultValue
	}
}

func (f *Flag) clone() *Flag {
	c := *f
	return &c
}

// DefaultFlags returns the flags every deployment starts with. All are off.
func DefaultFlags(now time.Time) map[string]*Flag {
	return map[string]*Flag{
		FlagDisablePredictions: {
			Key:         FlagDisablePredictions,
			Value:       false,
			Description: "Reject prediction requests with 503",
			UpdatedAt:   now,
		},
		FlagForceSimulatedModel: {
			Key:         FlagForceSimulatedModel,
			Value:       false,
			Description: "Serve predictions from the simulated model",
			UpdatedAt:   now,
		},
		FlagPauseBatchAssessment: {
			Key:         FlagPauseBatchAssessment,
			Value:       false,
			Description: "Skip batch assessment jobs in the worker",
			UpdatedAt:   now,
		},
	}
}
