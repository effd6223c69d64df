package mmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned by every accessor once the mapping is closed.
	ErrClosed = errors.New("mmap: mapping is closed")

	// ErrOutOfRange is returned for a section that is not inside the file.
	ErrOutOfRange = errors.New("mmap: section out of range")
)

// Mapping is a read-only view of a file's contents.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path. An empty file yields a Mapping of length 0.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return &Mapping{}, nil
	}
	if fi.Size() > math.MaxInt {
		return nil, fmt.Errorf("mmap: %s: %d bytes exceed the address space", path, fi.Size())
	}

	data, unmap, err := osMap(f, int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Close unmaps the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.data == nil {
		return nil
	}
	return m.unmap(m.data)
}

// Len returns the file size in bytes.
func (m *Mapping) Len() int64 { return int64(len(m.data)) }

// Bytes returns the mapped bytes, or nil once the mapping is closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Advise hints the expected access pattern to the kernel.
func (m *Mapping) Advise(a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, a)
}

// Section returns the n bytes starting at off without copying. The slice
// must not be used after Close.
func (m *Mapping) Section(off, n int64) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off > int64(len(m.data))-n {
		return nil, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, off, off+n, len(m.data))
	}
	return m.data[off : off+n], nil
}

// Uint32 decodes the little-endian uint32 at off.
func (m *Mapping) Uint32(off int64) (uint32, error) {
	b, err := m.Section(off, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Float32s decodes len(dst) little-endian float32 values starting at off.
func (m *Mapping) Float32s(off int64, dst []float32) error {
	b, err := m.Section(off, 4*int64(len(dst)))
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return nil
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOutOfRange, off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
