package airquality

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ModelPort is the seam behind which a predictive model is swapped.
// Implementations must be safe for concurrent use.
type ModelPort interface {
	// Predict returns the four readings for validated coordinates, or an
	// error wrapping ErrModelOutput when the model output cannot be interpreted.
	Predict(ctx context.Context, coords Coordinates) (*Prediction, error)
}

// PredictUseCaseConfig holds configuration for the predict use case.
type PredictUseCaseConfig struct {
	// Model is the process-wide model port.
	Model ModelPort

	// Logger for use case operations.
	Logger zerolog.Logger
}

// PredictUseCase validates a location and asks the model for a prediction.
// Classification and presentation happen elsewhere so the result stays a plain Prediction.
type PredictUseCase struct {
	model  ModelPort
	logger zerolog.Logger
}

// NewPredictUseCase creates a new predict use case.
func NewPredictUseCase(cfg PredictUseCaseConfig) *PredictUseCase {
	return &PredictUseCase{
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Execute validates (lat, lon) and returns the model's prediction unchanged.
// Validation errors are returned before the model is consulted.
func (u *PredictUseCase) Execute(ctx context.Context, lat, lon float64) (*Prediction, error) {
	coords := NewCoordinates(lat, lon)
	if err := coords.Validate(); err != nil {
		return nil, err
	}

	prediction, err := u.model.Predict(ctx, coords)
	if err != nil {
		if !errors.Is(err, ErrModelOutput) {
			u.logger.Debug().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Msg("model prediction failed")
		}
		return nil, err
	}

	return prediction, nil
}

// Ready reports whether a model port has been wired in.
func (u *PredictUseCase) Ready() bool {
	return u != nil && u.model != nil
}
