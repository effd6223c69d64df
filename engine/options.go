package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/metrics"
)

const (
	// DefaultTimeout bounds a single query, including the searcher-side
	// recall computation.
	DefaultTimeout = 20 * time.Second

	// DefaultDocumentType is the schema the benchmark feeds.
	DefaultDocumentType = "test"

	// DefaultPath is the search handler path.
	DefaultPath = "/search/"
)

type options struct {
	timeout    time.Duration
	qps        float64
	burst      int
	httpClient *http.Client
	logger     *slog.Logger
	codec      codec.Codec
	docType    string
	metrics    metrics.Collector
}

// Option configures a Client.
type Option func(*options)

func applyOptions(optFns []Option) options {
	opts := options{
		timeout: DefaultTimeout,
		burst:   1,
		logger:  slog.New(slog.DiscardHandler),
		codec:   codec.Default,
		docType: DefaultDocumentType,
		metrics: metrics.NoopCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.httpClient == nil {
		opts.httpClient = &http.Client{}
	}
	return opts
}

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithQPS limits the request rate. Zero or a negative value disables the
// limit.
func WithQPS(qps float64, burst int) Option {
	return func(o *options) {
		o.qps = qps
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
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

// WithCodec sets the response decoder.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithDocumentType sets the document type queries select from.
func WithDocumentType(name string) Option {
	return func(o *options) {
		if name != "" {
			o.docType = name
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}
