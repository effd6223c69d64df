package recall

import "log/slog"

const (
	// DefaultWorkers is the size of the evaluation pool.
	DefaultWorkers = 5

	// DefaultMaxQueries caps the cross-encoding workload.
	DefaultMaxQueries = 100
)

type options struct {
	workers    int
	maxQueries int
	logger     *slog.Logger
}

// Option configures an evaluation.
type Option func(*options)

func applyOptions(optFns []Option) options {
	opts := options{
		workers:    DefaultWorkers,
		maxQueries: DefaultMaxQueries,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithMaxQueries sets the cross-encoding query ceiling.
func WithMaxQueries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQueries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
