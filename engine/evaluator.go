package engine

import (
	"context"

	"github.com/hupe1980/annbench/recall"
)

// Query is one query vector with its position in the workload.
type Query struct {
	Index  int
	Vector []float32
}

// Queries wraps vectors as a workload.
func Queries(vectors [][]float32) []Query {
	qs := make([]Query, len(vectors))
	for i, v := range vectors {
		qs[i] = Query{Index: i, Vector: v}
	}
	return qs
}

// RecallEvaluator issues approx and its exact counterpart for every query
// and returns both hit sets. The Vector of both templates is replaced by
// the query's. Each observer sees the result of every approximate search.
func RecallEvaluator(c *Client, approx, exact Request, observers ...func(Result)) recall.Evaluator[Query] {
	return func(ctx context.Context, q Query) (recall.Pair, error) {
		candidate, err := c.Search(ctx, approx.WithVector(q.Vector))
		if err != nil {
			return recall.Pair{}, err
		}
		for _, observe := range observers {
			observe(candidate)
		}
		truth, err := c.Search(ctx, exact.WithVector(q.Vector))
		if err != nil {
			return recall.Pair{}, err
		}
		return recall.Pair{Candidate: candidate.IDs(), GroundTruth: truth.IDs()}, nil
	}
}

// SearcherRecallScorer lets the engine compute the recall of every query.
func SearcherRecallScorer(c *Client, tmpl RecallRequest) recall.Scorer[Query] {
	return func(ctx context.Context, q Query) (int, error) {
		return c.SearcherRecall(ctx, tmpl.WithVector(q.Vector))
	}
}

// CrossTemplates returns the request pair comparing an approximate search
// over a quantized tensor with an exact search over its float counterpart.
func CrossTemplates(quantizedTensor, quantizedQuery, floatTensor, floatQuery string, targetHits int) (approx, exact Request) {
	approx = Request{
		DocTensor:   quantizedTensor,
		QueryTensor: quantizedQuery,
		TargetHits:  targetHits,
		Hits:        targetHits,
	}
	exact = Request{
		DocTensor:   floatTensor,
		QueryTensor: floatQuery,
		TargetHits:  targetHits,
		Hits:        targetHits,
		Exact:       true,
		Ranking:     FloatExactRanking,
	}
	return approx, exact
}

// FloatExactRanking is the rank profile scoring the float tensor exactly.
const FloatExactRanking = "float-exact"
