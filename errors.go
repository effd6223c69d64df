package annbench

import (
	"errors"
	"fmt"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/fvecs"
	"github.com/hupe1980/annbench/recall"
)

var (
	// ErrConfiguration reports a setup problem: unknown dataset, unsupported
	// metric, invalid parameters or an unusable configuration file.
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedRecord reports a truncated vector file.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrEmptySampleSet reports a recall run without any query.
	ErrEmptySampleSet = errors.New("empty sample set")

	// ErrEngineQuery reports a query the search engine answered with an error.
	ErrEngineQuery = errors.New("engine query failed")
)

// ErrDimensionMismatch indicates a query file whose vectors do not match the
// dataset's dimensions.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// Is lets dimension mismatches match ErrConfiguration.
func (e *ErrDimensionMismatch) Is(target error) bool { return target == ErrConfiguration }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, dataset.ErrConfiguration) ||
		errors.Is(err, engine.ErrInvalidRequest) ||
		errors.Is(err, recall.ErrInvalidTargetHits) {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	var dm *fvecs.DimensionMismatchError
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, fvecs.ErrMalformedRecord) {
		return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	if errors.Is(err, recall.ErrEmptySampleSet) {
		return fmt.Errorf("%w: %w", ErrEmptySampleSet, err)
	}
	var eq *recall.EngineQueryError
	if errors.As(err, &eq) {
		return fmt.Errorf("%w: %w", ErrEngineQuery, err)
	}
	var he *engine.HTTPError
	if errors.As(err, &he) {
		return fmt.Errorf("%w: %w", ErrEngineQuery, err)
	}
	if errors.Is(err, engine.ErrUnexpectedResponse) {
		return fmt.Errorf("%w: %w", ErrEngineQuery, err)
	}

	return err
}
