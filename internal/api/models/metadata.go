package models

// Thresholds describes the classification tables served by GET /v1/metadata/thresholds.
type Thresholds struct {
	Bands      []BandInfo             `json:"bands"`
	Pollutants []PollutantBreakpoints `json:"pollutants"`
}

// BandInfo is one severity band in ascending order.
type BandInfo struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Score int    `json:"score"`
}

// PollutantBreakpoints lists the lower bound of every band above excellent.
type PollutantBreakpoints struct {
	Parameter   string    `json:"parameter"`
	Unit        string    `json:"unit"`
	Breakpoints []float64 `json:"breakpoints"`
}
