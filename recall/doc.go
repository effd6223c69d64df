// Package recall scores candidate result sets against ground truth.
//
// The per-query score is the size of the intersection between the candidate
// and ground-truth identifier sets. Normalization to a percentage happens only
// when results are reported, by dividing by the requested number of hits.
//
// Evaluate fans a query workload out over a fixed pool of workers and blocks
// until every worker has finished. Any failed query aborts the whole
// evaluation: a query the engine rejects points at a broken test setup, so
// nothing is retried.
package recall
