package mmap

// Advice is an access pattern hint passed to madvise(2).
type Advice int

const (
	AdviseNormal Advice = iota
	// AdviseSequential suits full scans such as streaming a base corpus.
	AdviseSequential
	// AdviseRandom suits record lookups by index.
	AdviseRandom
)
