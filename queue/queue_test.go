package queue

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopK_MatchesFullSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	all := make([]Neighbor, 500)
	for i := range all {
		all[i] = Neighbor{ID: uint64(i), Distance: float32(rng.IntN(50))}
	}

	top := NewTopK(10)
	for _, n := range all {
		top.Offer(n)
	}

	slices.SortFunc(all, Compare)
	assert.Equal(t, all[:10], top.Sorted())

	worst, ok := top.Worst()
	require.True(t, ok)
	assert.Equal(t, all[9], worst)
}

func TestTopK_TiesResolveByID(t *testing.T) {
	top := NewTopK(2)
	assert.True(t, top.Offer(Neighbor{ID: 9, Distance: 1}))
	assert.True(t, top.Offer(Neighbor{ID: 4, Distance: 1}))
	assert.True(t, top.Offer(Neighbor{ID: 7, Distance: 1}))
	assert.False(t, top.Offer(Neighbor{ID: 8, Distance: 1}))

	assert.Equal(t, []uint64{4, 7}, top.IDs())
}

func TestTopK_Degenerate(t *testing.T) {
	assert.False(t, NewTopK(0).Offer(Neighbor{}))
	assert.False(t, NewTopK(-1).Offer(Neighbor{}))

	top := NewTopK(5)
	_, ok := top.Worst()
	assert.False(t, ok)

	top.Offer(Neighbor{ID: 1, Distance: 2})
	assert.Equal(t, 1, top.Len())
	assert.Equal(t, []uint64{1}, top.IDs())
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare(Neighbor{ID: 5, Distance: 0.1}, Neighbor{ID: 1, Distance: 0.2}))
	assert.Positive(t, Compare(Neighbor{ID: 2, Distance: 0.2}, Neighbor{ID: 1, Distance: 0.2}))
	assert.Zero(t, Compare(Neighbor{ID: 3, Distance: 1}, Neighbor{ID: 3, Distance: 1}))
}
