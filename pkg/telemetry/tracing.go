// Package telemetry provides OpenTelemetry tracing for pluginkit commands.
// Tracing is off unless enabled; spans are exported over OTLP/HTTP using the
// standard OTEL_EXPORTER_OTLP_* environment variables.
package telemetry

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config represents the configuration for the telemetry system
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// SamplerType is one of always, never, ratio
	SamplerType  string
	SamplerRatio float64
}

// InitTracer installs a global tracer provider and returns its shutdown
// function. When tracing is disabled the returned shutdown is a no-op.
func InitTracer(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var shutdownFuncs []func(context.Context) error

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create resource")
	}

	traceExporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create trace exporter")
	}
	shutdownFuncs = append(shutdownFuncs, traceExporter.Shutdown)

	tracerProvider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSpanProcessor(trace.NewBatchSpanProcessor(
			traceExporter,
			trace.WithMaxExportBatchSize(512),
			trace.WithBatchTimeout(1*time.Second),
		)),
		trace.WithSampler(getSampler(cfg)),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		return err
	}, nil
}

func getSampler(cfg Config) trace.Sampler {
	switch cfg.SamplerType {
	case "never":
		return trace.NeverSample()
	case "ratio":
		return trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplerRatio))
	default:
		return trace.AlwaysSample()
	}
}
