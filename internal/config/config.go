// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Model backends.
const (
	ModelBackendArtifact  = "artifact"
	ModelBackendSimulated = "simulated"
	ModelBackendRemote    = "remote"
)

// Feature flag backends.
const (
	FlagsBackendMemory   = "memory"
	FlagsBackendPostgres = "postgres"
)

// DefaultModelPath is where the artifact backend looks for its model file.
const DefaultModelPath = "artifacts/air_model.json"

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port            string
	Env             string
	LogLevel        zerolog.Level
	ShutdownTimeout time.Duration
	RequireTLS      bool

	ModelBackend    string
	ModelPath       string
	ModelServiceURL string
	ModelTimeout    time.Duration

	OTelEnabled      bool
	OTLPEndpoint     string
	TraceSampleRatio float64

	FeatureFlagsBackend string
	FeatureFlagsTTL     time.Duration

	JWTSigningKey string

	PubSubProjectID    string
	PubSubSubscription string
	WorkerConcurrency  int
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(envOrDefault("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parsePositiveDuration("MODEL_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	flagsTTL, err := parsePositiveDuration("FEATURE_FLAGS_CACHE_TTL", "30s")
	if err != nil {
		return nil, err
	}

	otelEnabled, err := parseBool("OTEL_ENABLED", false)
	if err != nil {
		return nil, err
	}
	requireTLS, err := parseBool("REQUIRE_TLS", false)
	if err != nil {
		return nil, err
	}

	sampleRatio, err := strconv.ParseFloat(envOrDefault("OTEL_TRACES_SAMPLE_RATIO", "1"), 64)
	if err != nil || sampleRatio <= 0 || sampleRatio > 1 {
		return nil, errors.New("invalid OTEL_TRACES_SAMPLE_RATIO: must be greater than 0 and at most 1")
	}

	concurrency, err := strconv.Atoi(envOrDefault("WORKER_CONCURRENCY", "8"))
	if err != nil || concurrency < 1 {
		return nil, errors.New("invalid WORKER_CONCURRENCY: must be a positive integer")
	}

	cfg := &Config{
		Port:            envOrDefault("APP_PORT", "8080"),
		Env:             envOrDefault("APP_ENV", "development"),
		LogLevel:        level,
		ShutdownTimeout: shutdownTimeout,
		RequireTLS:      requireTLS,

		ModelBackend:    strings.ToLower(envOrDefault("MODEL_BACKEND", ModelBackendArtifact)),
		ModelPath:       envOrDefault("MODEL_PATH", DefaultModelPath),
		ModelServiceURL: os.Getenv("MODEL_SERVICE_URL"),
		ModelTimeout:    modelTimeout,

		OTelEnabled:      otelEnabled,
		OTLPEndpoint:     envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TraceSampleRatio: sampleRatio,

		FeatureFlagsBackend: strings.ToLower(envOrDefault("FEATURE_FLAGS_BACKEND", FlagsBackendMemory)),
		FeatureFlagsTTL:     flagsTTL,

		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),

		PubSubProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubSubscription: envOrDefault("PUBSUB_SUBSCRIPTION", "airservice-assessments"),
		WorkerConcurrency:  concurrency,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ModelBackend {
	case ModelBackendArtifact, ModelBackendSimulated:
	case ModelBackendRemote:
		if c.ModelServiceURL == "" {
			return errors.New("MODEL_SERVICE_URL is required when MODEL_BACKEND is remote")
		}
		u, err := url.Parse(c.ModelServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid MODEL_SERVICE_URL %q", c.ModelServiceURL)
		}
	default:
		return fmt.Errorf("invalid MODEL_BACKEND %q: must be artifact, simulated or remote", c.ModelBackend)
	}

	switch c.FeatureFlagsBackend {
	case FlagsBackendMemory, FlagsBackendPostgres:
	default:
		return fmt.Errorf("invalid FEATURE_FLAGS_BACKEND %q: must be memory or postgres", c.FeatureFlagsBackend)
	}

	if c.IsProduction() && c.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY is required in production")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
