package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("dataset: configuration error")

	// ErrUnknownDataset is the cause of a lookup for an unregistered name.
	ErrUnknownDataset = errors.New("unknown dataset")

	// ErrUnsupportedMetric is the cause when a metric name is not recognized.
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrInvalidEntry is the cause when a catalog entry fails validation.
	ErrInvalidEntry = errors.New("invalid catalog entry")

	// ErrUnsupportedFormat is the cause when a corpus cannot be prepared.
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
)

// ConfigurationError reports a setup problem that retrying cannot fix.
type ConfigurationError struct {
	Dataset string
	Detail  string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := "dataset"
	if e.Dataset != "" {
		msg += " " + e.Dataset
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
