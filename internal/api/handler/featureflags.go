package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/api/models"
	"github.com/tempoair/airservice/internal/api/response"
	"github.com/tempoair/airservice/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.List(r.Context())

	list := models.FeatureFlagList{Items: make([]models.FeatureFlag, 0, len(flags))}
	for _, f := range flags {
		list.Items = append(list.Items, toFeatureFlag(f))
	}
	response.OK(w, r, list)
}

// UpsertFeatureFlag handles PUT /v1/admin/feature-flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlag(w http.ResponseWriter, r *http.Request) {
	var input models.UpsertFeatureFlagRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	input.Key = strings.TrimSpace(input.Key)
	var fieldErrs []models.FieldError
	if input.Key == "" {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "key", Message: "key is required", Code: models.CodeRequired})
	}
	if input.Enabled == nil {
		fieldErrs = append(fieldErrs, models.FieldError{Field: "enabled", Message: "enabled is required", Code: models.CodeRequired})
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid feature flag", fieldErrs)
		return
	}

	ctx := r.Context()
	flag := &featureflags.Flag{Key: input.Key, Value: *input.Enabled}
	if input.Description != nil {
		flag.Description = *input.Description
	} else if existing := h.service.GetFlag(ctx, input.Key); existing != nil {
		flag.Description = existing.Description
	}

	if err := h.service.SetFlag(ctx, flag); err != nil {
		h.logger.Error().Err(err).Str("flag", flag.Key).Msg("failed to update feature flag")
		response.InternalError(w, r, "failed to update feature flag")
		return
	}

	h.logger.Info().
		Str("flag", flag.Key).
		Bool("enabled", *input.Enabled).
		Str("subject", Subject(ctx)).
		Msg("feature flag changed")

	response.OK(w, r, toFeatureFlag(flag))
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	h.logger.Info().Str("subject", Subject(r.Context())).Msg("feature flag cache invalidated")
	response.NoContent(w, r)
}

func toFeatureFlag(f *featureflags.Flag) models.FeatureFlag {
	return models.FeatureFlag{
		Key:         f.Key,
		Enabled:     f.BoolValue(false),
		Description: f.Description,
	}
}
