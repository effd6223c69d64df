package blobstore

import (
	"bytes"
	"io"
)

// view serves blob reads from bytes already in memory.
type view []byte

func (v view) readAt(p []byte, off int64) (int, error) {
	if off >= int64(len(v)) {
		return 0, io.EOF
	}
	n := copy(p, v[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// section clamps [off, off+length) to the view. Ranges past the end are
// empty rather than an error, like a ranged GET past EOF.
func (v view) section(off, length int64) io.ReadCloser {
	size := int64(len(v))
	if off >= size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil))
	}
	return io.NopCloser(bytes.NewReader(v[off:min(size, off+length)]))
}
