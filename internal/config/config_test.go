package config_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempoair/airservice/internal/config"
)

var envKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "SHUTDOWN_TIMEOUT", "REQUIRE_TLS",
	"MODEL_BACKEND", "MODEL_PATH", "MODEL_SERVICE_URL", "MODEL_TIMEOUT",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_TRACES_SAMPLE_RATIO",
	"FEATURE_FLAGS_BACKEND", "FEATURE_FLAGS_CACHE_TTL", "JWT_SIGNING_KEY",
	"PUBSUB_PROJECT_ID", "PUBSUB_SUBSCRIPTION", "WORKER_CONCURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.RequireTLS)
	assert.Equal(t, config.ModelBackendArtifact, cfg.ModelBackend)
	assert.Equal(t, config.DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, 10*time.Second, cfg.ModelTimeout)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.Equal(t, config.FlagsBackendMemory, cfg.FeatureFlagsBackend)
	assert.Equal(t, 30*time.Second, cfg.FeatureFlagsTTL)
	assert.Empty(t, cfg.JWTSigningKey)
	assert.Equal(t, "airservice-assessments", cfg.PubSubSubscription)
	assert.Equal(t, 8, cfg.WorkerConcurrency)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_CustomEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REQUIRE_TLS", "true")
	t.Setenv("MODEL_BACKEND", "remote")
	t.Setenv("MODEL_SERVICE_URL", "http://inference:8000")
	t.Setenv("MODEL_TIMEOUT", "2s")
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.1")
	t.Setenv("FEATURE_FLAGS_BACKEND", "postgres")
	t.Setenv("JWT_SIGNING_KEY", "secret")
	t.Setenv("PUBSUB_PROJECT_ID", "tempo-prod")
	t.Setenv("WORKER_CONCURRENCY", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.True(t, cfg.RequireTLS)
	assert.Equal(t, config.ModelBackendRemote, cfg.ModelBackend)
	assert.Equal(t, "http://inference:8000", cfg.ModelServiceURL)
	assert.Equal(t, 2*time.Second, cfg.ModelTimeout)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 0.1, cfg.TraceSampleRatio)
	assert.Equal(t, config.FlagsBackendPostgres, cfg.FeatureFlagsBackend)
	assert.Equal(t, "tempo-prod", cfg.PubSubProjectID)
	assert.Equal(t, 3, cfg.WorkerConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}, "SHUTDOWN_TIMEOUT"},
		{"negative model timeout", map[string]string{"MODEL_TIMEOUT": "-1s"}, "MODEL_TIMEOUT"},
		{"otel flag", map[string]string{"OTEL_ENABLED": "maybe"}, "OTEL_ENABLED"},
		{"sample ratio", map[string]string{"OTEL_TRACES_SAMPLE_RATIO": "2"}, "OTEL_TRACES_SAMPLE_RATIO"},
		{"worker concurrency", map[string]string{"WORKER_CONCURRENCY": "0"}, "WORKER_CONCURRENCY"},
		{"model backend", map[string]string{"MODEL_BACKEND": "onnx"}, "MODEL_BACKEND"},
		{"remote without url", map[string]string{"MODEL_BACKEND": "remote"}, "MODEL_SERVICE_URL"},
		{"remote relative url", map[string]string{"MODEL_BACKEND": "remote", "MODEL_SERVICE_URL": "inference"}, "MODEL_SERVICE_URL"},
		{"flags backend", map[string]string{"FEATURE_FLAGS_BACKEND": "redis"}, "FEATURE_FLAGS_BACKEND"},
		{"production without key", map[string]string{"APP_ENV": "production"}, "JWT_SIGNING_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
