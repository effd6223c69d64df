package annbench

import (
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/metrics"
	"github.com/hupe1980/annbench/recall"
	"github.com/hupe1980/annbench/report"
)

type options struct {
	logger         *Logger
	metrics        metrics.Collector
	workers        int
	maxCrossQuery  int
	sink           report.Sink
	runID          string
	prepareOptions []dataset.Option
}

// Option configures a Harness.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:        NoopLogger(),
		metrics:       metrics.NoopCollector{},
		workers:       recall.DefaultWorkers,
		maxCrossQuery: recall.DefaultMaxQueries,
		sink:          report.Discard,
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the collector receiving conversion and recall results.
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithWorkers sets the number of concurrent recall workers.
// Values <= 0 keep the default of recall.DefaultWorkers.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithCrossQueryLimit caps the number of queries a cross-encoding run
// evaluates. Values <= 0 keep the default of recall.DefaultMaxQueries.
func WithCrossQueryLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCrossQuery = n
		}
	}
}

// WithSink sets where result rows are written.
func WithSink(s report.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithRunID tags every row with id. A random id is generated otherwise.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithPrepareOptions passes options to the dataset preparer.
func WithPrepareOptions(opts ...dataset.Option) Option {
	return func(o *options) {
		o.prepareOptions = append(o.prepareOptions, opts...)
	}
}
