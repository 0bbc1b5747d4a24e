// Package tracing installs the global OpenTelemetry tracer provider used by
// the checkout saga spans.
package tracing

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// Shutdown flushes buffered spans and stops the exporter.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup exports spans over OTLP/HTTP when tracing is enabled. With tracing
// off the global no-op provider stays in place.
func Setup(ctx context.Context, cfg config.Config) (Shutdown, error) {
	if !cfg.FeatureFlags.Tracing {
		return noopShutdown, nil
	}
	if cfg.Tracing.Endpoint == "" {
		return noopShutdown, errors.New("otlp endpoint required when tracing is enabled")
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint)}
	if cfg.Tracing.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return noopShutdown, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.Tracing.ServiceName),
			semconv.DeploymentEnvironment(cfg.App.Env),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
