package airquality_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tempoair/airservice/internal/airquality"
)

func TestCoordinates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"amsterdam", 52.3676, 4.9041, false},
		{"north pole", 90, 0, false},
		{"south pole", -90, 0, false},
		{"antimeridian east", 0, 180, false},
		{"antimeridian west", 0, -180, false},
		{"all corners", -90, -180, false},
		{"latitude too high", 90.000001, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.000001, true},
		{"longitude too low", 0, -200, true},
		{"latitude NaN", math.NaN(), 0, true},
		{"longitude NaN", 0, math.NaN(), true},
		{"latitude infinite", math.Inf(1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := airquality.NewCoordinates(tt.lat, tt.lon).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, airquality.ErrInvalidArgument)
				assert.Contains(t, err.Error(), "invalid coordinates (out of range)")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCoordinates_ValidateSweep(t *testing.T) {
	for lat := -90.0; lat <= 90; lat += 7.5 {
		for lon := -180.0; lon <= 180; lon += 15 {
			assert.NoError(t, airquality.NewCoordinates(lat, lon).Validate(), "lat=%v lon=%v", lat, lon)
		}
	}
}

func TestNewCoordinates_DoesNotValidate(t *testing.T) {
	c := airquality.NewCoordinates(123, 456)
	assert.Equal(t, 123.0, c.Lat())
	assert.Equal(t, 456.0, c.Lon())
}

func TestPrediction_FormaldehydeMicrograms(t *testing.T) {
	p := airquality.Prediction{Formaldehyde: 0.010}
	assert.InDelta(t, 10.0, p.FormaldehydeMicrograms(), 1e-12)

	assert.Equal(t, 0.0, airquality.MilligramsToMicrograms(0))
	assert.Equal(t, 2500.0, airquality.MilligramsToMicrograms(2.5))
}
