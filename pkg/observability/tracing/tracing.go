// Package tracing installs the OpenTelemetry tracer provider used for
// per-item spans. Spans go to stdout, to a Zipkin collector, or nowhere.
package tracing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fluxorio/threadpool/pkg/config"
)

// Exporter names accepted in config.TracingConfig.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterZipkin = "zipkin"
)

// ShutdownFunc flushes buffered spans and stops the exporter.
type ShutdownFunc func(context.Context) error

type options struct {
	writer     io.Writer
	httpClient *http.Client
	global     bool
}

// Option tunes Setup.
type Option func(*options)

// WithWriter sends stdout spans to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithHTTPClient sets the client the Zipkin exporter posts with.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithoutGlobal leaves the otel global provider untouched.
func WithoutGlobal() Option {
	return func(o *options) { o.global = false }
}

// Setup builds a tracer provider for cfg and, unless WithoutGlobal is given,
// installs it as the otel global together with the W3C propagators.
// The returned ShutdownFunc must be called before exit to flush spans.
func Setup(ctx context.Context, cfg config.TracingConfig, opts ...Option) (trace.TracerProvider, ShutdownFunc, error) {
	o := options{writer: os.Stdout, global: true}
	for _, opt := range opts {
		opt(&o)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "", ExporterNone:
		tp := noop.NewTracerProvider()
		if o.global {
			otel.SetTracerProvider(tp)
		}
		return tp, func(context.Context) error { return nil }, nil

	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(o.writer))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		exporter = exp

	case ExporterZipkin:
		var zopts []zipkin.Option
		if o.httpClient != nil {
			zopts = append(zopts, zipkin.WithClient(o.httpClient))
		}
		exp, err := zipkin.New(cfg.ZipkinEndpoint, zopts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zipkin exporter for %s: %w", cfg.ZipkinEndpoint, err)
		}
		exporter = exp

	default:
		return nil, nil, fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)
	if o.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	return tp, tp.Shutdown, nil
}
