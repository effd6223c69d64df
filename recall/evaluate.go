package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pair is what an evaluator returns for one query: the identifiers the
// engine under test returned and the ground-truth identifiers.
type Pair struct {
	Candidate   []uint64
	GroundTruth []uint64
}

// Evaluator runs one query. It carries its own per-query timeout.
type Evaluator[Q any] func(ctx context.Context, query Q) (Pair, error)

// Batch is a contiguous half-open range [Start, End) of query indices.
type Batch struct {
	Start int
	End   int
}

// Len returns the number of queries in the batch.
func (b Batch) Len() int { return b.End - b.Start }

// Partition splits total queries into at most workers contiguous batches of
// ceil(total/workers) queries; the last batch may be shorter.
func Partition(total, workers int) []Batch {
	if total <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	size := (total + workers - 1) / workers
	batches := make([]Batch, 0, workers)
	for start := 0; start < total; start += size {
		batches = append(batches, Batch{Start: start, End: min(start+size, total)})
	}
	return batches
}

// Scorer runs one query whose recall is computed by the engine itself and
// returns the count directly.
type Scorer[Q any] func(ctx context.Context, query Q) (int, error)

// Evaluate scores every query and returns one sample per query. Batches run
// concurrently; the order of the returned samples is unspecified. The first
// failing query aborts the evaluation.
func Evaluate[Q any](ctx context.Context, queries []Q, eval Evaluator[Q], optFns ...Option) ([]Sample, error) {
	return run(ctx, queries, func(ctx context.Context, i int, q Q) (Sample, error) {
		return evaluateOne(ctx, i, q, eval)
	}, optFns)
}

// EvaluateScores is Evaluate for engines that report the recall count
// themselves instead of returning identifier sets.
func EvaluateScores[Q any](ctx context.Context, queries []Q, score Scorer[Q], optFns ...Option) ([]Sample, error) {
	return run(ctx, queries, func(ctx context.Context, i int, q Q) (Sample, error) {
		n, err := score(ctx, q)
		if err != nil {
			return Sample{}, tagQuery(i, err)
		}
		return Sample{Query: i, Recall: n}, nil
	}, optFns)
}

func run[Q any](ctx context.Context, queries []Q, one func(context.Context, int, Q) (Sample, error), optFns []Option) ([]Sample, error) {
	opts := applyOptions(optFns)
	batches := Partition(len(queries), opts.workers)
	if len(batches) == 0 {
		return nil, nil
	}

	start := time.Now()
	collector := NewCollector(len(queries))
	g, gctx := errgroup.WithContext(ctx)

	for _, b := range batches {
		g.Go(func() error {
			local := make([]Sample, 0, b.Len())
			for i := b.Start; i < b.End; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := one(gctx, i, queries[i])
				if err != nil {
					return err
				}
				local = append(local, s)
			}
			collector.Add(local...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	opts.logger.DebugContext(ctx, "recall evaluation completed",
		slog.Int("queries", len(queries)),
		slog.Int("batches", len(batches)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return collector.Samples(), nil
}

func evaluateOne[Q any](ctx context.Context, index int, query Q, eval Evaluator[Q]) (Sample, error) {
	pair, err := eval(ctx, query)
	if err != nil {
		return Sample{}, tagQuery(index, err)
	}
	return Sample{Query: index, Recall: CountIDs(pair.Candidate, pair.GroundTruth)}, nil
}

func tagQuery(index int, err error) error {
	var eqe *EngineQueryError
	if errors.As(err, &eqe) {
		eqe.Query = index
		return eqe
	}
	return fmt.Errorf("recall: query %d: %w", index, err)
}
