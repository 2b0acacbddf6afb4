// Package observability wires OpenTelemetry metrics and traces for the job
// orchestration layer. Export is OTLP over HTTP and is disabled by default.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/Edgar454/WhoIsTalking/internal/logger"
)

// Config holds observability configuration.
type Config struct {
	// Enabled controls whether telemetry is exported at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// Insecure allows plaintext connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`

	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`

	// Interval is the metric export interval (e.g. "15s").
	Interval string `yaml:"interval" mapstructure:"interval"`

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Interval == "" {
		c.Interval = "15s"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := time.ParseDuration(c.Interval); err != nil {
		return fmt.Errorf("invalid observability.interval %q: %w", c.Interval, err)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be in [0,1] (got: %f)", c.SampleRate)
	}
	return nil
}

// Provider owns the initialized meter and tracer providers.
type Provider struct {
	shutdowns []func(context.Context) error
	Metrics   *Metrics
}

// Init sets up metrics and traces per config. When disabled it returns a
// Provider whose instruments are nil; callers treat nil Metrics as no-op.
func Init(ctx context.Context, cfg Config, serviceName string, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{}
	if !cfg.Enabled {
		return p, nil
	}

	mp, err := initMeter(ctx, cfg, serviceName)
	if err != nil {
		return nil, err
	}
	p.shutdowns = append(p.shutdowns, mp.Shutdown)

	tp, err := initTracer(ctx, cfg, serviceName)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.shutdowns = append(p.shutdowns, tp.Shutdown)

	metrics, err := NewMetrics(Meter(serviceName))
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.Metrics = metrics

	log.Info("Observability initialized", map[string]interface{}{
		"endpoint":    cfg.Endpoint,
		"environment": cfg.Environment,
	})
	return p, nil
}

// Shutdown flushes and stops all initialized providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, stop := range p.shutdowns {
		if err := stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newResource creates an OpenTelemetry resource with service metadata.
func newResource(serviceName, environment string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			attribute.String("environment", environment),
		),
	)
}
