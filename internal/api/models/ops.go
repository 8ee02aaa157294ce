package models

// Health represents liveness or readiness.
type Health struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status                 HealthStatus     `json:"status"`
	Time                   Timestamp        `json:"time"`
	Version                string           `json:"version,omitempty"`
	Providers              []ProviderStatus `json:"providers"`
	ActiveDegradationFlags []string         `json:"activeDegradationFlags,omitempty"`
}

// ProviderStatus represents the status of one model provider.
type ProviderStatus struct {
	Provider      string       `json:"provider"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	Requests      uint32       `json:"requests"`
	Failures      uint32       `json:"failures"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	Message       *string      `json:"message,omitempty"`
}

// FeatureFlag is the API view of one runtime flag.
type FeatureFlag struct {
	Key         string `json:"key"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// FeatureFlagList is the body of GET /v1/admin/feature-flags.
type FeatureFlagList struct {
	Items []FeatureFlag `json:"items"`
}

// UpsertFeatureFlagRequest is the body of PUT /v1/admin/feature-flags.
type UpsertFeatureFlagRequest struct {
	Key         string  `json:"key"`
	Enabled     *bool   `json:"enabled"`
	Description *string `json:"description,omitempty"`
}
