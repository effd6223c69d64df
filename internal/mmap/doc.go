// Package mmap maps vector files read-only so single records can be decoded
// by offset without streaming multi-gigabyte corpora.
//
//	m, err := mmap.Open("sift_query.fvecs")
//	if err != nil { ... }
//	defer m.Close()
//
//	dim, _ := m.Uint32(0)
//	v := make([]float32, dim)
//	_ = m.Float32s(4, v)
//
// A Mapping is safe for concurrent readers. Slices returned by Bytes or
// Section must not be used after Close.
package mmap
