package recall

import (
	"context"
	"log/slog"
)

// CrossResult is the outcome of a cross-encoding comparison.
type CrossResult struct {
	// Queries is the number of queries evaluated after applying the ceiling.
	Queries    int
	TargetHits int
	// Overlap is the summed per-query intersection size.
	Overlap int
	// Percent is Overlap / (Queries * TargetHits) * 100.
	Percent float64
}

// CrossEncoding compares two encodings of the same corpus. For each query the
// evaluator returns the approximate result of the encoding under test as the
// candidate and the exact result of the baseline encoding as ground truth.
// At most the configured ceiling of queries is evaluated, one after another.
func CrossEncoding[Q any](ctx context.Context, queries []Q, eval Evaluator[Q], targetHits int, optFns ...Option) (CrossResult, error) {
	opts := applyOptions(optFns)
	if targetHits <= 0 {
		return CrossResult{}, ErrInvalidTargetHits
	}

	n := min(len(queries), opts.maxQueries)
	if n == 0 {
		return CrossResult{}, ErrEmptySampleSet
	}

	total := 0
	for i := range n {
		s, err := evaluateOne(ctx, i, queries[i], eval)
		if err != nil {
			return CrossResult{}, err
		}
		total += s.Recall
	}

	res := CrossResult{
		Queries:    n,
		TargetHits: targetHits,
		Overlap:    total,
		Percent:    float64(total) / float64(n*targetHits) * 100,
	}
	opts.logger.DebugContext(ctx, "cross-encoding recall completed",
		slog.Int("queries", n),
		slog.Int("target_hits", targetHits),
		slog.Float64("percent", res.Percent),
	)
	return res, nil
}
