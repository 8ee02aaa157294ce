// Package airquality provides the air quality prediction core: coordinates,
// model predictions, severity classification and the predict use case.
package airquality

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrInvalidArgument is returned when request input is definitionally bad.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrModelOutput is returned when a model's raw output cannot be read as a Prediction.
	ErrModelOutput = errors.New("unrecognized model output")
)

// Pollutant identifies one of the four readings a model produces.
type Pollutant string

const (
	PollutantNO2          Pollutant = "NO2"
	PollutantFormaldehyde Pollutant = "Formaldehyde"
	PollutantPM25         Pollutant = "PM2.5"
	PollutantAerosolIndex Pollutant = "Aerosol_Index"
)

// Pollutants lists the readings in presentation order.
var Pollutants = []Pollutant{
	PollutantNO2,
	PollutantFormaldehyde,
	PollutantPM25,
	PollutantAerosolIndex,
}

// Coordinate bounds in degrees, inclusive.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Coordinates is a (lat, lon) pair in degrees.
// Construction does not check ranges; call Validate before use.
type Coordinates struct {
	lat float64
	lon float64
}

// NewCoordinates creates a Coordinates value without validating it.
func NewCoordinates(lat, lon float64) Coordinates {
	return Coordinates{lat: lat, lon: lon}
}

// Lat returns the latitude in degrees.
func (c Coordinates) Lat() float64 { return c.lat }

// Lon returns the longitude in degrees.
func (c Coordinates) Lon() float64 { return c.lon }

// Validate reports an ErrInvalidArgument when either component is out of range.
// NaN is never in range.
func (c Coordinates) Validate() error {
	inRange := c.lat >= MinLatitude && c.lat <= MaxLatitude &&
		c.lon >= MinLongitude && c.lon <= MaxLongitude
	if !inRange {
		return fmt.Errorf("%w: invalid coordinates (out of range)", ErrInvalidArgument)
	}
	return nil
}

// Prediction holds the four readings a model produced for one location.
type Prediction struct {
	// NitrogenDioxide is the NO2 concentration in µg/m³.
	NitrogenDioxide float64

	// Formaldehyde is the HCHO concentration in mg/m³.
	// Note the unit differs from the other concentrations.
	Formaldehyde float64

	// AerosolIndex is a dimensionless aerosol optical depth.
	AerosolIndex float64

	// ParticulateMatter is the particulate concentration in µg/m³, treated as PM2.5.
	ParticulateMatter float64
}

// FormaldehydeMicrograms returns the formaldehyde reading converted to µg/m³.
func (p Prediction) FormaldehydeMicrograms() float64 {
	return MilligramsToMicrograms(p.Formaldehyde)
}

// MilligramsToMicrograms converts a concentration from mg/m³ to µg/m³.
func MilligramsToMicrograms(v float64) float64 {
	return v * 1000
}
