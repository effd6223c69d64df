package dataset

import (
	"log/slog"

	"github.com/hupe1980/annbench/convert"
)

// CachePolicy decides when a converted artifact may be reused.
type CachePolicy int

const (
	// CacheByExistence reuses any existing artifact without checking the
	// source. A changed source is not detected.
	CacheByExistence CachePolicy = iota

	// CacheByModTime reconverts when the source is newer than the artifact.
	// Both files must be on the local filesystem.
	CacheByModTime
)

func (p CachePolicy) String() string {
	switch p {
	case CacheByModTime:
		return "modtime"
	default:
		return "existence"
	}
}

// ParseCachePolicy returns the policy named s ("existence" or "modtime").
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch s {
	case "", "existence":
		return CacheByExistence, nil
	case "modtime":
		return CacheByModTime, nil
	}
	return CacheByExistence, &ConfigurationError{Detail: "cache policy " + s, Err: ErrInvalidEntry}
}

type options struct {
	logger      *slog.Logger
	prober      Prober
	policy      CachePolicy
	convertOpts []convert.Option
}

// Option configures a Preparer.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProber sets how artifact existence is tested. Defaults to FileProber.
func WithProber(p Prober) Option {
	return func(o *options) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithCachePolicy sets the artifact reuse policy.
func WithCachePolicy(p CachePolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithConvertOptions passes extra options to the format adapters.
func WithConvertOptions(opts ...convert.Option) Option {
	return func(o *options) {
		o.convertOpts = append(o.convertOpts, opts...)
	}
}
