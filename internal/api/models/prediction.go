package models

// PredictRequest is the body of POST /v1/predict. Both fields are required;
// pointers distinguish a missing field from zero.
type PredictRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// PredictionResponse is the successful prediction payload.
type PredictionResponse struct {
	Success bool           `json:"success"`
	Data    PredictionData `json:"data"`
}

// PredictionData holds the assessment for one location.
type PredictionData struct {
	Coordinates          ResponseCoordinates `json:"coordinates"`
	Timestamp            string              `json:"timestamp"`
	AirQualityIndicators []Indicator         `json:"air_quality_indicators"`
	OverallAssessment    OverallAssessment   `json:"overall_assessment"`
}

// ResponseCoordinates echoes the requested location.
type ResponseCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Indicator is one pollutant reading with its band and guidance.
type Indicator struct {
	Parameter      string  `json:"parameter"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	Status         string  `json:"status"`
	Description    string  `json:"description"`
	HealthImpact   string  `json:"health_impact"`
	Recommendation string  `json:"recommendation"`
}

// OverallAssessment is the worst band across all indicators.
type OverallAssessment struct {
	Status      string `json:"status"`
	AQI         int    `json:"aqi"`
	Description string `json:"description"`
}

// LegacyHealth is the body of GET /health.
type LegacyHealth struct {
	Status string `json:"status"`
}
