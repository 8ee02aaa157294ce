// Package handler provides HTTP handlers for the air quality API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/api/mapper"
	"github.com/tempoair/airservice/internal/api/middleware"
	"github.com/tempoair/airservice/internal/api/models"
	"github.com/tempoair/airservice/internal/api/response"
	"github.com/tempoair/airservice/internal/featureflags"
	"github.com/tempoair/airservice/internal/provider/resilience"
)

// Predictor runs the predict use case. *airquality.PredictUseCase implements it.
type Predictor interface {
	Execute(ctx context.Context, lat, lon float64) (*airquality.Prediction, error)
}

// FlagChecker reports whether a boolean feature flag is on.
type FlagChecker interface {
	IsEnabled(ctx context.Context, key string) bool
}

// AssessmentRecorder counts served assessments by overall band.
type AssessmentRecorder interface {
	RecordAssessment(ctx context.Context, band string)
}

// PredictHandlerConfig holds dependencies for PredictHandler.
type PredictHandlerConfig struct {
	Predictor Predictor
	Mapper    *mapper.ResponseMapper
	Flags     FlagChecker        // optional
	Recorder  AssessmentRecorder // optional
	Logger    zerolog.Logger
}

// PredictHandler serves air quality predictions.
type PredictHandler struct {
	predictor Predictor
	mapper    *mapper.ResponseMapper
	flags     FlagChecker
	recorder  AssessmentRecorder
	logger    zerolog.Logger
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(cfg PredictHandlerConfig) *PredictHandler {
	m := cfg.Mapper
	if m == nil {
		m = mapper.NewResponseMapper(nil)
	}
	return &PredictHandler{
		predictor: cfg.Predictor,
		mapper:    m,
		flags:     cfg.Flags,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
	}
}

// Predict handles POST /v1/predict and the legacy POST /api/predict.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.flags != nil && h.flags.IsEnabled(ctx, featureflags.FlagDisablePredictions) {
		response.ServiceUnavailable(w, r, "predictions are temporarily disabled")
		return
	}

	var input models.PredictRequest
	if err := decodeJSON(w, r, &input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			response.BadRequest(w, r, "invalid request body", []models.FieldError{
				{Field: typeErr.Field, Message: "must be a number", Code: models.CodeInvalid},
			})
			return
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrs := requiredCoordinates(input); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "latitude and longitude are required", fieldErrs)
		return
	}

	lat, lon := *input.Latitude, *input.Longitude
	prediction, err := h.predictor.Execute(ctx, lat, lon)
	if err == nil && prediction == nil {
		err = fmt.Errorf("%w: empty prediction", airquality.ErrModelOutput)
	}
	if err != nil {
		h.writePredictError(w, r, lat, lon, err)
		return
	}

	resp := h.mapper.Map(lat, lon, prediction)
	if h.recorder != nil {
		h.recorder.RecordAssessment(ctx, resp.Data.OverallAssessment.Status)
	}
	response.OK(w, r, resp)
}

func (h *PredictHandler) writePredictError(w http.ResponseWriter, r *http.Request, lat, lon float64, err error) {
	if errors.Is(err, airquality.ErrInvalidArgument) {
		response.BadRequest(w, r, "invalid coordinates (out of range)", rangeErrors(lat, lon))
		return
	}

	event := h.logger.Error()
	if errors.Is(err, resilience.ErrCircuitOpen) {
		event = h.logger.Warn()
	}
	event.Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Float64("lat", lat).
		Float64("lon", lon).
		Bool("model_output", errors.Is(err, airquality.ErrModelOutput)).
		Msg("prediction failed")

	response.InternalError(w, r, "internal service error")
}

func requiredCoordinates(input models.PredictRequest) []models.FieldError {
	var errs []models.FieldError
	if input.Latitude == nil {
		errs = append(errs, models.FieldError{Field: "latitude", Message: "latitude is required", Code: models.CodeRequired})
	}
	if input.Longitude == nil {
		errs = append(errs, models.FieldError{Field: "longitude", Message: "longitude is required", Code: models.CodeRequired})
	}
	return errs
}

func rangeErrors(lat, lon float64) []models.FieldError {
	var errs []models.FieldError
	if !(lat >= airquality.MinLatitude && lat <= airquality.MaxLatitude) {
		errs = append(errs, models.FieldError{Field: "latitude", Message: "must be between -90 and 90", Code: models.CodeOutOfRange})
	}
	if !(lon >= airquality.MinLongitude && lon <= airquality.MaxLongitude) {
		errs = append(errs, models.FieldError{Field: "longitude", Message: "must be between -180 and 180", Code: models.CodeOutOfRange})
	}
	return errs
}
