package testutil

import (
	"math"
	"math/rand/v2"
	"sync"
)

// RNG generates reproducible corpora. Safe for concurrent use.
type RNG struct {
	mu   sync.Mutex
	seed uint64
	src  *rand.PCG
	rand *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &RNG{seed: seed, src: src, rand: rand.New(src)}
}

// Reset rewinds the generator to its seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	r.src.Seed(r.seed, r.seed^0x9e3779b97f4a7c15)
	r.mu.Unlock()
}

func (r *RNG) Seed() uint64 { return r.seed }

// IDs returns n document identifiers drawn from [0, universe).
func (r *RNG) IDs(n int, universe uint64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.rand.Uint64N(universe)
	}
	return out
}

// matrix allocates num vectors of dim over one backing array and fills
// each one under the lock.
func (r *RNG) matrix(num, dim int, fill func(vec []float32)) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	backing := make([]float32, num*dim)
	out := make([][]float32, num)
	for i := range out {
		out[i] = backing[i*dim : (i+1)*dim : (i+1)*dim]
		fill(out[i])
	}
	return out
}

// UniformVectors draws components from [0, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	return r.matrix(num, dim, func(vec []float32) {
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
	})
}

// GaussianVectors draws components from the standard normal distribution.
func (r *RNG) GaussianVectors(num, dim int) [][]float32 {
	return r.matrix(num, dim, func(vec []float32) {
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
	})
}

// UnitVectors returns L2-normalized vectors, the shape of angular corpora
// such as sentence embeddings.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	return r.matrix(num, dim, func(vec []float32) {
		var sq float64
		for j := range vec {
			v := r.rand.NormFloat64()
			vec[j] = float32(v)
			sq += v * v
		}
		if sq == 0 {
			return
		}
		inv := float32(1 / math.Sqrt(sq))
		for j := range vec {
			vec[j] *= inv
		}
	})
}

// ClusteredVectors scatters vectors around clusters unit centroids with
// standard deviation spread, which gives ground truth with real structure.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)
	i := 0
	return r.matrix(num, dim, func(vec []float32) {
		c := centroids[i%clusters]
		i++
		for j := range vec {
			vec[j] = c[j] + spread*float32(r.rand.NormFloat64())
		}
	})
}
