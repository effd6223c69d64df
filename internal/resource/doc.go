// Package resource bounds the network resources corpus downloads consume.
//
//   - Concurrency: a weighted semaphore caps simultaneous downloads.
//   - Bandwidth: a token bucket caps bytes per second across all downloads.
//
// A nil *Controller is valid and imposes no limits.
package resource
