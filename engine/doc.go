// Package engine is the client for the search engine under test.
//
// It speaks the Vespa-style HTTP search API used by the nearest-neighbor
// benchmarks: a YQL nearestNeighbor query whose query tensor travels as a
// ranking feature, and the searcher-side recall endpoint that reports the
// recall count of a single query as a hit field.
//
// Queries are never retried. A request that fails or that the engine
// answers with an error aborts the measurement it belongs to.
package engine
