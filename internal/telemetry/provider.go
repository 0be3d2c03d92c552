// Package telemetry wires OpenTelemetry tracing for the server.
package telemetry

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/KDT2006/seabattle/internal/config"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Shutdown flushes pending spans.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs a global tracer provider exporting over OTLP HTTP to the
// endpoint named in env. Without an endpoint the no-op provider stays in
// place and the returned Shutdown does nothing.
func Setup(ctx context.Context, env config.Env, version string) (Shutdown, error) {
	if env.OTelEndpoint == "" {
		logger.Debug("tracing disabled")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(env.OTelEndpoint))
	if err != nil {
		return noop, errors.Wrap(err, "create trace exporter")
	}
	res, err := newResource(ctx, env.ServiceName, version)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(env.OTelSampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.WithFields(logrus.Fields{
		"endpoint": env.OTelEndpoint,
		"service":  env.ServiceName,
		"version":  version,
		"ratio":    env.OTelSampleRatio,
	}).Info("tracing enabled")
	return tp.Shutdown, nil
}

func newResource(ctx context.Context, service, version string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)
	return res, errors.Wrap(err, "create resource")
}

// sampler keeps every trace at ratio 1 or above and honours the parent's
// decision for remote spans.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
