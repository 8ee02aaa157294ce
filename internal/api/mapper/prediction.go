// Package mapper turns a model prediction into the public assessment payload.
package mapper

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/api/models"
)

// Display units.
const (
	UnitMicrograms = "µg/m³"
	UnitAOD        = "AOD"
)

// guidance is the health impact and recommendation shown for a band.
type guidance struct {
	healthImpact   string
	recommendation string
}

var bandGuidance = map[airquality.Band]guidance{
	airquality.BandExcellent:     {"Excellent visibility and atmospheric quality", "Ideal conditions for outdoor activities"},
	airquality.BandGood:          {"Low risk", "Maintain adequate ventilation"},
	airquality.BandModerate:      {"Mild respiratory irritation", "Avoid intense outdoor exercise if sensitive"},
	airquality.BandUnhealthy:     {"Respiratory symptoms possible", "Limit outdoor activities"},
	airquality.BandVeryUnhealthy: {"More noticeable symptoms", "Avoid outdoor activities"},
	airquality.BandHazardous:     {"Serious health risk", "Stay indoors with good filtration"},
}

var overallDescriptions = map[airquality.Band]string{
	airquality.BandExcellent:     "Air quality is excellent for everyone",
	airquality.BandGood:          "Air quality is satisfactory for most people",
	airquality.BandModerate:      "Air quality may be a concern for sensitive groups",
	airquality.BandUnhealthy:     "Unhealthy for sensitive groups",
	airquality.BandVeryUnhealthy: "Very unhealthy for everyone",
	airquality.BandHazardous:     "Hazardous conditions",
}

// indicatorSpec fixes the order, unit, description and display precision of each indicator.
type indicatorSpec struct {
	pollutant   airquality.Pollutant
	unit        string
	description string
	places      int
}

var indicatorSpecs = []indicatorSpec{
	{airquality.PollutantNO2, UnitMicrograms, "Nitrogen Dioxide levels", 2},
	{airquality.PollutantFormaldehyde, UnitMicrograms, "Formaldehyde concentration", 2},
	{airquality.PollutantPM25, UnitMicrograms, "Fine particulate matter", 2},
	{airquality.PollutantAerosolIndex, UnitAOD, "Atmospheric aerosol measurement", 3},
}

// Guidance returns the health impact and recommendation for b. Bands
// without an entry get the moderate texts.
func Guidance(b airquality.Band) (healthImpact, recommendation string) {
	g, ok := bandGuidance[b]
	if !ok {
		g = bandGuidance[airquality.BandModerate]
	}
	return g.healthImpact, g.recommendation
}

// OverallDescription returns the sentence describing an overall band.
func OverallDescription(b airquality.Band) string {
	if d, ok := overallDescriptions[b]; ok {
		return d
	}
	return overallDescriptions[airquality.BandModerate]
}

// FormatTimestamp renders t in UTC as ISO 8601 with a Z suffix. Microseconds
// are included only when non-zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC().Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}
	return t.Format("2006-01-02T15:04:05.000000Z")
}

// ResponseMapper builds prediction payloads. It is stateless apart from its clock.
type ResponseMapper struct {
	clock clockwork.Clock
}

// NewResponseMapper creates a mapper reading timestamps from clock (real clock when nil).
func NewResponseMapper(clock clockwork.Clock) *ResponseMapper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ResponseMapper{clock: clock}
}

// Map classifies p and assembles the response for (lat, lon). Bands are
// computed on unrounded values; rounding only affects displayed values.
func (m *ResponseMapper) Map(lat, lon float64, p *airquality.Prediction) *models.PredictionResponse {
	c := airquality.Classify(*p)

	values := map[airquality.Pollutant]float64{
		airquality.PollutantNO2:          p.NitrogenDioxide,
		airquality.PollutantFormaldehyde: c.FormaldehydeMicrograms,
		airquality.PollutantPM25:         p.ParticulateMatter,
		airquality.PollutantAerosolIndex: p.AerosolIndex,
	}

	indicators := make([]models.Indicator, 0, len(indicatorSpecs))
	for _, spec := range indicatorSpecs {
		band := c.Band(spec.pollutant)
		impact, rec := Guidance(band)
		indicators = append(indicators, models.Indicator{
			Parameter:      string(spec.pollutant),
			Value:          airquality.Round(values[spec.pollutant], spec.places),
			Unit:           spec.unit,
			Status:         band.String(),
			Description:    spec.description,
			HealthImpact:   impact,
			Recommendation: rec,
		})
	}

	return &models.PredictionResponse{
		Success: true,
		Data: models.PredictionData{
			Coordinates:          models.ResponseCoordinates{Latitude: lat, Longitude: lon},
			Timestamp:            FormatTimestamp(m.clock.Now()),
			AirQualityIndicators: indicators,
			OverallAssessment: models.OverallAssessment{
				Status:      c.Overall.String(),
				AQI:         c.Score,
				Description: OverallDescription(c.Overall),
			},
		},
	}
}
