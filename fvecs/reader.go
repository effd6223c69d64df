package fvecs

import (
	"io"
	"iter"
	"os"
)

// Reader decodes records one at a time.
type Reader struct {
	rr  *recordReader
	err error
}

// NewReader returns a Reader decoding records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{rr: newRecordReader(r, 1<<20)}
}

// Next returns the next record. It returns io.EOF after the last complete
// record and a *MalformedRecordError if the stream ends inside a record.
// Once Next has failed it keeps returning the same error.
func (r *Reader) Next() ([]float32, error) {
	if r.err != nil {
		return nil, r.err
	}
	b, err := r.rr.next()
	if err != nil {
		r.err = err
		return nil, err
	}
	return decodeFloat32s(b), nil
}

// Records returns the number of complete records decoded so far.
func (r *Reader) Records() int { return r.rr.records }

// ReadAll lazily yields every record of the file at path. Iteration stops
// after the first error, which is yielded with a nil vector.
func ReadAll(path string) iter.Seq2[[]float32, error] {
	return func(yield func([]float32, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()

		r := NewReader(f)
		for {
			v, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Load reads at most limit records (all records if limit <= 0) of the file at
// path. If dim > 0 every record must have exactly dim values; otherwise the
// first record defines the dimension for the rest of the file.
func Load(path string, dim, limit int) ([][]float32, error) {
	var out [][]float32
	for v, err := range ReadAll(path) {
		if err != nil {
			return nil, err
		}
		if dim <= 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return nil, &DimensionMismatchError{Record: len(out), Expected: dim, Actual: len(v)}
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
