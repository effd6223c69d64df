package fvecs

import (
	"fmt"

	"github.com/hupe1980/annbench/internal/mmap"
)

// MappedFile gives random access to a memory-mapped file whose records all
// share the dimension declared by the first record.
type MappedFile struct {
	m    *mmap.Mapping
	dim  int
	size int64
	n    int
}

// OpenMapped maps the file at path. A file whose length is not a multiple of
// the first record's size is rejected with a *MalformedRecordError.
func OpenMapped(path string) (*MappedFile, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	total := m.Len()
	if total == 0 {
		return &MappedFile{m: m}, nil
	}
	head, err := m.Uint32(0)
	if err != nil {
		_ = m.Close()
		return nil, &MalformedRecordError{Trailing: total}
	}

	dim := int(head)
	size := RecordSize(dim)
	if rem := total % size; rem != 0 {
		_ = m.Close()
		return nil, &MalformedRecordError{
			Record:   int(total / size),
			Offset:   total - rem,
			Trailing: rem,
		}
	}

	_ = m.Advise(mmap.AdviseRandom)

	return &MappedFile{m: m, dim: dim, size: size, n: int(total / size)}, nil
}

// Len returns the number of records.
func (f *MappedFile) Len() int { return f.n }

// Dim returns the dimension declared by the first record.
func (f *MappedFile) Dim() int { return f.dim }

// At decodes record i into a new slice.
func (f *MappedFile) At(i int) ([]float32, error) {
	if i < 0 || i >= f.n {
		return nil, fmt.Errorf("fvecs: record %d out of range [0, %d)", i, f.n)
	}

	off := int64(i) * f.size
	got, err := f.m.Uint32(off)
	if err != nil {
		return nil, err
	}
	if int(got) != f.dim {
		return nil, &DimensionMismatchError{Record: i, Expected: f.dim, Actual: int(got)}
	}

	out := make([]float32, f.dim)
	if err := f.m.Float32s(off+4, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Slice decodes records [start, end).
func (f *MappedFile) Slice(start, end int) ([][]float32, error) {
	if start < 0 || end > f.n || start > end {
		return nil, fmt.Errorf("fvecs: invalid record range [%d, %d) of %d", start, end, f.n)
	}
	out := make([][]float32, 0, end-start)
	for i := start; i < end; i++ {
		v, err := f.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Close unmaps the file.
func (f *MappedFile) Close() error {
	return f.m.Close()
}
