package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tempoair/airservice/internal/api/middleware"

// Metrics holds the HTTP server instruments.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestTotal     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	responseSize     metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP server requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsInFlight, err := meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	responseSize, err := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP server responses in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		requestsInFlight: requestsInFlight,
		responseSize:     responseSize,
	}, nil
}

// Middleware records duration, count and size per method, route and status.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			inFlight := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.requestsInFlight.Add(r.Context(), 1, inFlight)
			defer m.requestsInFlight.Add(r.Context(), -1, inFlight)

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.status_code", strconv.Itoa(wrapped.statusCode)),
			}
			if wrapped.statusCode >= 400 {
				attrs = append(attrs, attribute.Bool("error", true))
			}

			opts := metric.WithAttributes(attrs...)
			m.requestDuration.Record(r.Context(), time.Since(start).Seconds(), opts)
			m.requestTotal.Add(r.Context(), 1, opts)
			m.responseSize.Record(r.Context(), wrapped.written, opts)
		})
	}
}

// PredictionMetrics holds instruments for model calls and assessment outcomes.
type PredictionMetrics struct {
	modelDuration metric.Float64Histogram
	modelTotal    metric.Int64Counter
	assessments   metric.Int64Counter
}

// NewPredictionMetrics creates the prediction instruments.
func NewPredictionMetrics() (*PredictionMetrics, error) {
	meter := otel.Meter(meterName)

	modelDuration, err := meter.Float64Histogram(
		"model.request.duration",
		metric.WithDescription("Duration of model predictions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	modelTotal, err := meter.Int64Counter(
		"model.request.total",
		metric.WithDescription("Total number of model predictions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	assessments, err := meter.Int64Counter(
		"airquality.assessment.total",
		metric.WithDescription("Assessments served, by overall band"),
		metric.WithUnit("{assessment}"),
	)
	if err != nil {
		return nil, err
	}

	return &PredictionMetrics{
		modelDuration: modelDuration,
		modelTotal:    modelTotal,
		assessments:   assessments,
	}, nil
}

// RecordRequest records one model call.
func (m *PredictionMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("model.provider", provider),
		attribute.String("model.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Recorded after the request context may have been cancelled.
	ctx := context.Background()
	m.modelDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.modelTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAssessment counts one served assessment under its overall band.
func (m *PredictionMetrics) RecordAssessment(ctx context.Context, band string) {
	m.assessments.Add(ctx, 1, metric.WithAttributes(attribute.String("airquality.band", band)))
}
