// Package telemetry sets up OpenTelemetry tracing for the gateway.
package telemetry

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type options struct {
	writer      io.Writer
	prettyPrint bool
	sync        bool
}

// Option configures InitTracer.
type Option func(*options)

// WithWriter sends exported spans to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithCompactOutput disables pretty-printed span output.
func WithCompactOutput() Option {
	return func(o *options) { o.prettyPrint = false }
}

// WithSyncExport exports each span as it ends instead of batching.
func WithSyncExport() Option {
	return func(o *options) { o.sync = true }
}

// InitTracer initializes OpenTelemetry tracing and installs the global
// tracer provider. The returned function flushes and stops it.
func InitTracer(serviceName string, logger *slog.Logger, opts ...Option) (func(context.Context) error, error) {
	o := options{prettyPrint: true}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var exporterOpts []stdouttrace.Option
	if o.prettyPrint {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	if o.writer != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(o.writer))
	}

	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	// Create resource with service name
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	export := sdktrace.WithBatcher(exporter)
	if o.sync {
		export = sdktrace.WithSyncer(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	logger.Info("OpenTelemetry initialized", slog.String("service", serviceName))

	return tp.Shutdown, nil
}
