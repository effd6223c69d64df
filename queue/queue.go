// Package queue keeps the k nearest neighbors of a query during an
// exhaustive scan of a base corpus.
package queue

import (
	"cmp"
	"container/heap"
	"slices"
)

// Neighbor is a document identifier with its distance to the query.
type Neighbor struct {
	ID       uint64
	Distance float32
}

// Compare orders neighbors nearest first. Equal distances fall back to the
// identifier, so ground truth is stable across runs and worker counts.
func Compare(a, b Neighbor) int {
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// worstFirst is a max-heap: the root is the neighbor evicted next.
type worstFirst []Neighbor

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return Compare(h[i], h[j]) > 0 }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *worstFirst) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}

// TopK retains the k nearest neighbors offered to it. It is not safe for
// concurrent use; scans keep one per query.
type TopK struct {
	k    int
	heap worstFirst
}

// NewTopK returns an empty TopK holding at most k neighbors.
func NewTopK(k int) *TopK {
	return &TopK{k: k, heap: make(worstFirst, 0, max(k, 0))}
}

// Offer considers n and reports whether it was kept.
func (t *TopK) Offer(n Neighbor) bool {
	switch {
	case t.k <= 0:
		return false
	case len(t.heap) < t.k:
		heap.Push(&t.heap, n)
		return true
	case Compare(n, t.heap[0]) >= 0:
		return false
	}
	t.heap[0] = n
	heap.Fix(&t.heap, 0)
	return true
}

// Len returns the number of kept neighbors.
func (t *TopK) Len() int { return len(t.heap) }

// Worst returns the farthest kept neighbor, the bound a candidate must
// beat once the TopK is full.
func (t *TopK) Worst() (Neighbor, bool) {
	if len(t.heap) == 0 {
		return Neighbor{}, false
	}
	return t.heap[0], true
}

// Sorted returns the kept neighbors nearest first.
func (t *TopK) Sorted() []Neighbor {
	out := slices.Clone([]Neighbor(t.heap))
	slices.SortFunc(out, Compare)
	return out
}

// IDs returns the kept identifiers nearest first.
func (t *TopK) IDs() []uint64 {
	sorted := t.Sorted()
	ids := make([]uint64, len(sorted))
	for i, n := range sorted {
		ids[i] = n.ID
	}
	return ids
}
