package concurrency

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/threadpool/pkg/core"
	"github.com/fluxorio/threadpool/pkg/core/failfast"
)

// Option configures a ThreadPool.
type Option func(*ThreadPool)

// WithLogger sets the pool logger. The default logs at info level.
func WithLogger(logger core.Logger) Option {
	failfast.NotNil(logger, "logger")
	return func(p *ThreadPool) {
		p.logger = logger
	}
}

// WithMetrics sets the recorder notified of submissions and executions.
func WithMetrics(recorder MetricsRecorder) Option {
	failfast.NotNil(recorder, "recorder")
	return func(p *ThreadPool) {
		p.metrics = recorder
	}
}

// WithTracerProvider sets the provider used for per-item spans. The
// default is the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	failfast.NotNil(tp, "tracer provider")
	return func(p *ThreadPool) {
		p.tracer = tp.Tracer(instrumentationName)
	}
}
