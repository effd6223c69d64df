package recall

import (
	"errors"
	"fmt"
)

// ErrEmptySampleSet is returned when statistics are requested over zero
// samples.
var ErrEmptySampleSet = errors.New("recall: empty sample set")

// ErrInvalidTargetHits is returned when a normalization divisor is not
// positive.
var ErrInvalidTargetHits = errors.New("recall: target hits must be positive")

// EngineQueryError reports an error returned by the engine under test in
// place of a hit set.
type EngineQueryError struct {
	// Query is the index of the failed query in the evaluated workload.
	Query int
	// Message is the engine's error text.
	Message string
	Err     error
}

func (e *EngineQueryError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("recall: query %d: %v", e.Query, e.Err)
	}
	return fmt.Sprintf("recall: query %d: engine error: %s", e.Query, e.Message)
}

func (e *EngineQueryError) Unwrap() error { return e.Err }
