// Package telemetry wires OpenTelemetry metrics to a Prometheus exporter for
// the HTTP transport.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const meterName = "tugboat-mcp"

// Metrics holds the instruments recorded by the HTTP middleware.
type Metrics struct {
	Requests        metric.Int64Counter
	ErrorCount      metric.Int64Counter
	RequestDuration metric.Float64Histogram
}

// InitMetrics sets up the global meter provider backed by a Prometheus
// exporter and returns its shutdown function together with the request
// instruments.
func InitMetrics(version string) (func(context.Context) error, *Metrics, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(meterName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	if err := runtime.Start(runtime.WithMeterProvider(provider)); err != nil {
		return nil, nil, fmt.Errorf("starting runtime instrumentation: %w", err)
	}

	meter := provider.Meter(meterName)

	requests, err := meter.Int64Counter("http_requests",
		metric.WithDescription("HTTP requests served"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating request counter: %w", err)
	}
	errorCount, err := meter.Int64Counter("http_request_errors",
		metric.WithDescription("HTTP requests answered with a 4xx or 5xx status"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating error counter: %w", err)
	}
	duration, err := meter.Float64Histogram("http_request_duration",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	metrics := &Metrics{
		Requests:        requests,
		ErrorCount:      errorCount,
		RequestDuration: duration,
	}
	return provider.Shutdown, metrics, nil
}

// PrometheusHandler exposes the collected metrics in Prometheus text format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.Handler()
}
