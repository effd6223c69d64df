package groundtruth

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/fvecs"
	"github.com/hupe1980/annbench/queue"
)

// DefaultWorkers bounds the number of queries scanned concurrently.
const DefaultWorkers = 5

// Compute returns, for every query, the identifiers of its k nearest base
// vectors under metric, nearest first. Identifiers are base positions.
func Compute(ctx context.Context, base, queries [][]float32, k int, metric dataset.Metric, workers int) ([][]uint64, error) {
	if k <= 0 {
		return nil, fmt.Errorf("groundtruth: k must be positive, got %d", k)
	}
	dist, err := Distance(metric)
	if err != nil {
		return nil, err
	}
	if len(base) > 0 {
		dim := len(base[0])
		for i, v := range base {
			if len(v) != dim {
				return nil, &fvecs.DimensionMismatchError{Record: i, Expected: dim, Actual: len(v)}
			}
		}
		for i, q := range queries {
			if len(q) != dim {
				return nil, fmt.Errorf("groundtruth: query %d: %w", i, &fvecs.DimensionMismatchError{Record: i, Expected: dim, Actual: len(q)})
			}
		}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := make([][]uint64, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for qi, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			top := queue.NewTopK(k)
			for id, v := range base {
				top.Offer(queue.Neighbor{ID: uint64(id), Distance: dist(q, v)})
			}
			out[qi] = top.IDs()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FromIvecs loads published ground truth and keeps the first k neighbors of
// every query. A row shorter than k is an error.
func FromIvecs(path string, k int) ([][]uint64, error) {
	rows, err := fvecs.ReadIvecs(path)
	if err != nil {
		return nil, err
	}
	out := make([][]uint64, len(rows))
	for i, row := range rows {
		if len(row) < k {
			return nil, fmt.Errorf("groundtruth: %s: query %d has %d neighbors, need %d", path, i, len(row), k)
		}
		ids := make([]uint64, k)
		for j := range ids {
			ids[j] = uint64(row[j])
		}
		out[i] = ids
	}
	return out, nil
}
