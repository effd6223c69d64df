package recall

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// IDSet is a set of document identifiers.
type IDSet struct {
	bm *roaring64.Bitmap
}

// NewIDSet returns a set holding ids. Duplicates collapse.
func NewIDSet(ids ...uint64) IDSet {
	bm := roaring64.New()
	bm.AddMany(ids)
	return IDSet{bm: bm}
}

// Add inserts id.
func (s *IDSet) Add(id uint64) {
	if s.bm == nil {
		s.bm = roaring64.New()
	}
	s.bm.Add(id)
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id uint64) bool {
	return s.bm != nil && s.bm.Contains(id)
}

// Len returns the number of distinct identifiers.
func (s IDSet) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

// IDs returns the identifiers in ascending order.
func (s IDSet) IDs() []uint64 {
	if s.bm == nil {
		return nil
	}
	return s.bm.ToArray()
}

// Count returns |candidate ∩ truth|.
func Count(candidate, truth IDSet) int {
	if candidate.bm == nil || truth.bm == nil {
		return 0
	}
	return int(candidate.bm.AndCardinality(truth.bm))
}

// CountIDs is Count over identifier slices.
func CountIDs(candidate, truth []uint64) int {
	return Count(NewIDSet(candidate...), NewIDSet(truth...))
}
