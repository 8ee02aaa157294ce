// Package remote provides a ModelPort backed by an HTTP inference service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tempoair/airservice/internal/airquality"
	"github.com/tempoair/airservice/internal/model"
	"github.com/tempoair/airservice/internal/provider/resilience"
)

// ProviderName identifies this provider.
const ProviderName = "remote-model"

// maxResponseBytes caps how much of an inference response is read.
const maxResponseBytes = 1 << 20

// ClientConfig holds configuration for the inference client.
type ClientConfig struct {
	// BaseURL is the inference service base URL. Required.
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual inference requests (default: 10s).
	Timeout time.Duration

	// Registry receives success/failure reports. Optional.
	Registry *resilience.Registry
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls POST {BaseURL}/predict and reads the raw model output.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	registry   *resilience.Registry
}

// NewClient creates a new inference client.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Registry:        cfg.Registry,
		})
	} else if cfg.Registry != nil {
		breaker, _ := httpClient.(resilience.Breaker)
		cfg.Registry.Register(ProviderName, breaker)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpClient,
		registry:   cfg.Registry,
	}
}

type predictRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Predict implements airquality.ModelPort.
func (c *Client) Predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	prediction, err := c.predict(ctx, coords)
	c.report(err)
	return prediction, err
}

func (c *Client) predict(ctx context.Context, coords airquality.Coordinates) (*airquality.Prediction, error) {
	body, err := json.Marshal(predictRequest{Lat: coords.Lat(), Lon: coords.Lon()})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from inference service", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}

	return model.DecodeRawJSON(data)
}

func (c *Client) report(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(ProviderName, err)
		return
	}
	c.registry.RecordSuccess(ProviderName)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}
