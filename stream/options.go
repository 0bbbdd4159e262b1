package stream

import (
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

const tracerName = "github.com/kbukum/streamkit/stream"

const (
	defaultMinChunk   = 1
	defaultLeafFactor = 4
)

// options are carried, unchanged, from a source through every stage.
type options struct {
	workers    int
	minChunk   int
	leafFactor int
	log        *logger.Logger
	tracer     trace.Tracer
	metrics    *observability.StreamMetrics
	observer   func(State)
}

func defaultOptions() *options {
	return &options{
		workers:    runtime.GOMAXPROCS(0),
		minChunk:   defaultMinChunk,
		leafFactor: defaultLeafFactor,
		log:        logger.Nop(),
		tracer:     otel.Tracer(tracerName),
	}
}

// Option configures how a pipeline executes.
type Option func(*options)

// WithWorkers sets the worker pool size used in parallel mode.
// Values <= 0 keep the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMinChunk sets the size below which a source is not split further.
func WithMinChunk(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minChunk = n
		}
	}
}

// WithLeafFactor bounds the number of parallel leaves to workers*factor.
func WithLeafFactor(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.leafFactor = n
		}
	}
}

// WithLogger routes run logs to l.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l.WithComponent("stream")
		}
	}
}

// WithTracer overrides the tracer used for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStateObserver calls fn on every executor state change. In parallel
// mode fn is called from several goroutines.
func WithStateObserver(fn func(State)) Option {
	return func(o *options) { o.observer = fn }
}

// WithConfig applies the executor settings from a loaded configuration.
func WithConfig(cfg config.StreamConfig) Option {
	return func(o *options) {
		WithWorkers(cfg.Workers)(o)
		WithMinChunk(cfg.MinChunk)(o)
		WithLeafFactor(cfg.LeafFactor)(o)
	}
}

func (o *options) clone() *options {
	c := *o
	return &c
}
