// Package telemetry wires a pipeline.Observer up to OpenTelemetry: one span
// per run and per node, plus execution-count/duration/success/failure
// counters exported through Prometheus. Trimmed to the run/node events this
// engine has (no HTTP call metrics — no HTTP node type exists here).
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const defaultServiceName = "pipeline-engine"

const (
	metricRunTotal     = "pipeline.runs.total"
	metricRunDuration  = "pipeline.run.duration"
	metricRunSuccess   = "pipeline.runs.success.total"
	metricRunFailure   = "pipeline.runs.failure.total"
	metricNodeTotal    = "pipeline.node.executions.total"
	metricNodeDuration = "pipeline.node.execution.duration"
	metricNodeSuccess  = "pipeline.node.executions.success.total"
	metricNodeFailure  = "pipeline.node.executions.failure.total"
)

// Provider owns the OTel tracer/meter and the run/node metric instruments.
type Provider struct {
	mu sync.RWMutex

	meterProvider *sdkmetric.MeterProvider
	tracer        trace.Tracer
	meter         metric.Meter

	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	runSuccess   metric.Int64Counter
	runFailure   metric.Int64Counter
	nodeTotal    metric.Int64Counter
	nodeDuration metric.Float64Histogram
	nodeSuccess  metric.Int64Counter
	nodeFailure  metric.Int64Counter
}

// Config configures a Provider at construction time.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

// DefaultConfig returns tracing and metrics both enabled, against a
// development-environment resource.
func DefaultConfig() Config {
	return Config{
		ServiceName:    defaultServiceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider builds a Provider with a Prometheus metrics exporter and the
// process's global tracer provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: building resource: %w", err)
	}

	if cfg.EnableMetrics {
		if err := p.initMetrics(res, cfg.ServiceName); err != nil {
			return nil, fmt.Errorf("telemetry: initializing metrics: %w", err)
		}
	}
	if cfg.EnableTracing {
		p.tracer = otel.GetTracerProvider().Tracer(cfg.ServiceName)
	}
	return p, nil
}

func (p *Provider) initMetrics(res *resource.Resource, serviceName string) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("creating prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(serviceName)

	instruments := []struct {
		target **metric.Int64Counter
		name   string
		desc   string
	}{
		{&p.runTotal, metricRunTotal, "Total number of pipeline runs"},
		{&p.runSuccess, metricRunSuccess, "Total number of successful pipeline runs"},
		{&p.runFailure, metricRunFailure, "Total number of failed pipeline runs"},
		{&p.nodeTotal, metricNodeTotal, "Total number of node evaluations"},
		{&p.nodeSuccess, metricNodeSuccess, "Total number of successful node evaluations"},
		{&p.nodeFailure, metricNodeFailure, "Total number of failed node evaluations"},
	}
	for _, inst := range instruments {
		c, err := p.meter.Int64Counter(inst.name, metric.WithDescription(inst.desc))
		if err != nil {
			return err
		}
		*inst.target = c
	}

	var err2 error
	p.runDuration, err2 = p.meter.Float64Histogram(metricRunDuration,
		metric.WithDescription("Pipeline run duration"), metric.WithUnit("ms"))
	if err2 != nil {
		return err2
	}
	p.nodeDuration, err2 = p.meter.Float64Histogram(metricNodeDuration,
		metric.WithDescription("Node evaluation duration"), metric.WithUnit("ms"))
	return err2
}

// Tracer returns the run/node span tracer, or nil if tracing was disabled.
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

func (p *Provider) recordRun(ctx context.Context, pipelineName string, duration time.Duration, success bool) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pipeline.name", pipelineName))
	p.runTotal.Add(ctx, 1, attrs)
	p.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		p.runSuccess.Add(ctx, 1, attrs)
	} else {
		p.runFailure.Add(ctx, 1, attrs)
	}
}

func (p *Provider) recordNode(ctx context.Context, nodeName string, duration time.Duration, success bool) {
	if p.meter == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("node.name", nodeName))
	p.nodeTotal.Add(ctx, 1, attrs)
	p.nodeDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if success {
		p.nodeSuccess.Add(ctx, 1, attrs)
	} else {
		p.nodeFailure.Add(ctx, 1, attrs)
	}
}

// Shutdown flushes and releases the metrics provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.meterProvider == nil {
		return nil
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry: shutting down meter provider: %w", err)
	}
	return nil
}
