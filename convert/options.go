package convert

import (
	"log/slog"

	"github.com/hupe1980/annbench/codec"
)

const (
	// DefaultField is the document field holding the embedding tensor.
	DefaultField = "embedding"

	// DefaultQueryParam is the query-string parameter carrying the query tensor.
	DefaultQueryParam = "input.query(question)"

	// DefaultMaxCellDims caps the length of cell tensors densified without
	// expected dimensions.
	DefaultMaxCellDims = 1 << 16

	defaultProgressEvery = 50_000
)

type options struct {
	logger        *slog.Logger
	codec         codec.Codec
	strategies    []Strategy
	field         string
	expectedDims  int
	maxCellDims   int
	param         string
	progressEvery int
}

// Option configures a conversion.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:        slog.New(slog.DiscardHandler),
		codec:         codec.Default,
		strategies:    DefaultStrategies(),
		field:         DefaultField,
		maxCellDims:   DefaultMaxCellDims,
		param:         DefaultQueryParam,
		progressEvery: defaultProgressEvery,
	}
}

func (o options) cellLimits() cellLimits {
	return cellLimits{dims: o.expectedDims, max: o.maxCellDims}
}

func applyOptions(optFns []Option) options {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithLogger sets the logger for progress and summary messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the JSON codec used to decode documents and query tensors.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithStrategies replaces the ordered embedding lookup chain.
func WithStrategies(s ...Strategy) Option {
	return func(o *options) {
		if len(s) > 0 {
			o.strategies = s
		}
	}
}

// WithField sets the name of the embedding field.
func WithField(name string) Option {
	return func(o *options) {
		if name != "" {
			o.field = name
		}
	}
}

// WithExpectedDims sets the length of densified cell tensors. Cells addressing
// a dimension outside [0, n) make the document a skip. Zero means the length
// is derived from the largest address.
func WithExpectedDims(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.expectedDims = n
		}
	}
}

// WithMaxCellDims caps the length derived for cell tensors when no expected
// dimensions are set. Documents addressing a cell at or beyond n are skipped.
func WithMaxCellDims(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCellDims = n
		}
	}
}

// WithParam sets the query-string parameter read by the query-log adapter.
func WithParam(name string) Option {
	return func(o *options) {
		if name != "" {
			o.param = name
		}
	}
}

// WithProgressEvery sets how many converted records pass between debug
// progress messages.
func WithProgressEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.progressEvery = n
		}
	}
}
