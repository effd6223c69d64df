// Package groundtruth computes exact nearest neighbors by exhaustive scan and
// pairs them with engine results for offline recall evaluation.
package groundtruth
