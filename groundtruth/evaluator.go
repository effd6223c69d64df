package groundtruth

import (
	"context"
	"fmt"

	"github.com/hupe1980/annbench/recall"
)

// Query is a query vector and its row in the ground-truth table.
type Query struct {
	Index  int
	Vector []float32
}

// Queries wraps vectors as Queries indexed by position.
func Queries(vectors [][]float32) []Query {
	out := make([]Query, len(vectors))
	for i, v := range vectors {
		out[i] = Query{Index: i, Vector: v}
	}
	return out
}

// SearchFunc returns the identifiers the engine under test found for q.
type SearchFunc func(ctx context.Context, q Query) ([]uint64, error)

// Evaluator pairs the result of search with the first k exact neighbors of
// the query.
func Evaluator(truth [][]uint64, k int, search SearchFunc) recall.Evaluator[Query] {
	return func(ctx context.Context, q Query) (recall.Pair, error) {
		if q.Index < 0 || q.Index >= len(truth) {
			return recall.Pair{}, fmt.Errorf("groundtruth: no neighbors for query %d", q.Index)
		}
		candidate, err := search(ctx, q)
		if err != nil {
			return recall.Pair{}, err
		}
		exact := truth[q.Index]
		if len(exact) > k {
			exact = exact[:k]
		}
		return recall.Pair{Candidate: candidate, GroundTruth: exact}, nil
	}
}
