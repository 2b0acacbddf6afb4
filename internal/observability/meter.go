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
)

// initMeter initializes the OpenTelemetry meter provider.
func initMeter(ctx context.Context, cfg Config, serviceName string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	interval, _ := time.ParseDuration(cfg.Interval)
	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the metric instruments for the orchestration layer.
type Metrics struct {
	jobTotal       metric.Int64Counter
	jobDuration    metric.Float64Histogram
	cacheLookups   metric.Int64Counter
	predictorTotal metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	jobTotal, err := meter.Int64Counter("job.total",
		metric.WithDescription("Total number of processed jobs by final status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.total counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram("job.duration",
		metric.WithDescription("End-to-end job processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.duration histogram: %w", err)
	}

	cacheLookups, err := meter.Int64Counter("cache.lookups",
		metric.WithDescription("Result cache lookups by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache.lookups counter: %w", err)
	}

	predictorTotal, err := meter.Int64Counter("predictor.total",
		metric.WithDescription("Remote predictor calls by predictor and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating predictor.total counter: %w", err)
	}

	return &Metrics{
		jobTotal:       jobTotal,
		jobDuration:    jobDuration,
		cacheLookups:   cacheLookups,
		predictorTotal: predictorTotal,
	}, nil
}

// RecordJob records a finished job with its final status and duration.
func (m *Metrics) RecordJob(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.jobTotal.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheLookup records a result cache lookup outcome ("hit" or "miss").
func (m *Metrics) RecordCacheLookup(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordPredictorCall records one remote predictor call and its outcome.
func (m *Metrics) RecordPredictorCall(ctx context.Context, predictor, outcome string) {
	if m == nil {
		return
	}
	m.predictorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("predictor", predictor),
		attribute.String("outcome", outcome),
	))
}
