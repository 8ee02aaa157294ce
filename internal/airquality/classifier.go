package airquality

import (
	"encoding/json"
	"fmt"
)

// Band is a severity level. Bands are totally ordered from BandExcellent to BandHazardous.
type Band int

const (
	BandExcellent Band = iota
	BandGood
	BandModerate
	BandUnhealthy
	BandVeryUnhealthy
	BandHazardous
)

// Bands lists all bands in ascending severity.
var Bands = []Band{
	BandExcellent,
	BandGood,
	BandModerate,
	BandUnhealthy,
	BandVeryUnhealthy,
	BandHazardous,
}

var bandNames = [...]string{
	BandExcellent:     "excellent",
	BandGood:          "good",
	BandModerate:      "moderate",
	BandUnhealthy:     "unhealthy",
	BandVeryUnhealthy: "very_unhealthy",
	BandHazardous:     "hazardous",
}

// bandScores is the index score reported for an overall band.
var bandScores = [...]int{
	BandExcellent:     25,
	BandGood:          50,
	BandModerate:      100,
	BandUnhealthy:     150,
	BandVeryUnhealthy: 200,
	BandHazardous:     300,
}

// Valid reports whether b is one of the six enumerated bands.
func (b Band) Valid() bool {
	return b >= BandExcellent && b <= BandHazardous
}

// String returns the band's wire name.
func (b Band) String() string {
	if !b.Valid() {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandNames[b]
}

// Score returns the index score for the band, or 0 for an unknown band.
func (b Band) Score() int {
	if !b.Valid() {
		return 0
	}
	return bandScores[b]
}

// MarshalJSON encodes the band as its wire name.
func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a band from its wire name.
func (b *Band) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBand returns the band with the given wire name.
func ParseBand(s string) (Band, error) {
	for _, b := range Bands {
		if bandNames[b] == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown band %q", ErrInvalidArgument, s)
}

// Breakpoints are the ascending lower bounds of the bands above BandExcellent.
// A value v falls in band i when Breakpoints[i-1] <= v < Breakpoints[i].
type Breakpoints [5]float64

// Classify maps a reading to its band. Anything below the first breakpoint,
// negative values included, is BandExcellent.
func (bp Breakpoints) Classify(v float64) Band {
	band := BandExcellent
	for i, lower := range bp {
		if v < lower {
			break
		}
		band = Bands[i+1]
	}
	return band
}

// Breakpoint tables per pollutant. Formaldehyde is in µg/m³.
var (
	NO2Breakpoints          = Breakpoints{20, 40, 100, 200, 400}
	FormaldehydeBreakpoints = Breakpoints{10, 30, 60, 100, 200}
	PM25Breakpoints         = Breakpoints{5, 12, 35, 55, 150}
	AerosolIndexBreakpoints = Breakpoints{0.1, 0.3, 0.7, 1.0, 1.5}
)

// BreakpointsFor returns the table used for a pollutant.
func BreakpointsFor(p Pollutant) (Breakpoints, bool) {
	switch p {
	case PollutantNO2:
		return NO2Breakpoints, true
	case PollutantFormaldehyde:
		return FormaldehydeBreakpoints, true
	case PollutantPM25:
		return PM25Breakpoints, true
	case PollutantAerosolIndex:
		return AerosolIndexBreakpoints, true
	default:
		return Breakpoints{}, false
	}
}

// ClassifyNO2 classifies a nitrogen dioxide reading in µg/m³.
func ClassifyNO2(v float64) Band { return NO2Breakpoints.Classify(v) }

// ClassifyFormaldehyde classifies a formaldehyde reading in µg/m³.
func ClassifyFormaldehyde(v float64) Band { return FormaldehydeBreakpoints.Classify(v) }

// ClassifyPM25 classifies a fine particulate reading in µg/m³.
func ClassifyPM25(v float64) Band { return PM25Breakpoints.Classify(v) }

// ClassifyAerosolIndex classifies a dimensionless aerosol index.
func ClassifyAerosolIndex(v float64) Band { return AerosolIndexBreakpoints.Classify(v) }

// Overall returns the worst of the given bands and its index score.
// Ties at the maximum are equal by definition, so input order never matters.
func Overall(bands ...Band) (Band, int) {
	if len(bands) == 0 {
		return BandExcellent, BandExcellent.Score()
	}
	worst := bands[0]
	for _, b := range bands[1:] {
		if b > worst {
			worst = b
		}
	}
	return worst, worst.Score()
}

// Classification is the per-pollutant result of classifying one Prediction.
type Classification struct {
	NO2          Band
	Formaldehyde Band
	PM25         Band
	AerosolIndex Band

	// FormaldehydeMicrograms is the converted reading the formaldehyde band came from.
	FormaldehydeMicrograms float64

	Overall Band
	Score   int
}

// Classify converts formaldehyde to µg/m³, classifies all four readings on
// their unrounded values, and aggregates them.
func Classify(p Prediction) Classification {
	hcho := p.FormaldehydeMicrograms()
	c := Classification{
		NO2:                    ClassifyNO2(p.NitrogenDioxide),
		Formaldehyde:           ClassifyFormaldehyde(hcho),
		PM25:                   ClassifyPM25(p.ParticulateMatter),
		AerosolIndex:           ClassifyAerosolIndex(p.AerosolIndex),
		FormaldehydeMicrograms: hcho,
	}
	c.Overall, c.Score = Overall(c.NO2, c.Formaldehyde, c.PM25, c.AerosolIndex)
	return c
}

// Band returns the band for one pollutant.
func (c Classification) Band(p Pollutant) Band {
	switch p {
	case PollutantNO2:
		return c.NO2
	case PollutantFormaldehyde:
		return c.Formaldehyde
	case PollutantPM25:
		return c.PM25
	case PollutantAerosolIndex:
		return c.AerosolIndex
	default:
		return BandModerate
	}
}
