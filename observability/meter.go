package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names recorded by StreamMetrics.
const (
	MetricRuns     = "stream.runs"
	MetricEmitted  = "stream.elements.emitted"
	MetricFailures = "stream.failures"
	MetricDuration = "stream.run.duration"
)

// StreamMetrics holds the instruments recorded for every terminal run.
type StreamMetrics struct {
	runs     metric.Int64Counter
	emitted  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// NewStreamMetrics creates the stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Terminal runs by operation, mode and final status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRuns, err)
	}

	emitted, err := meter.Int64Counter(MetricEmitted,
		metric.WithDescription("Elements handed to terminal operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricEmitted, err)
	}

	failures, err := meter.Int64Counter(MetricFailures,
		metric.WithDescription("Failed runs by operation and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFailures, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of terminal runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	return &StreamMetrics{
		runs:     runs,
		emitted:  emitted,
		failures: failures,
		duration: duration,
	}, nil
}

// RecordRun records one finished run.
func (m *StreamMetrics) RecordRun(ctx context.Context, op, mode, status string, d time.Duration, emitted int64) {
	m.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, op),
		attribute.String(AttrMode, mode),
		attribute.String(AttrStatus, status),
	))
	attrs := metric.WithAttributes(
		attribute.String(AttrOperation, op),
		attribute.String(AttrMode, mode),
	)
	m.emitted.Add(ctx, emitted, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordFailure records a failed run by error code.
func (m *StreamMetrics) RecordFailure(ctx context.Context, op, code string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, op),
		attribute.String(AttrErrorCode, code),
	))
}
