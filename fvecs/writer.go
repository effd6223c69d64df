package fvecs

import (
	"bufio"
	"io"
	"os"

	kfvecs "github.com/kshard/fvecs"
)

// Write appends one record holding values to w.
// A zero-length vector is legal and yields a 4-byte record.
func Write(w io.Writer, values []float32) error {
	return kfvecs.NewEncoder[float32](w).Write(values)
}

type recordEncoder interface {
	Write(values []float32) error
}

// Writer appends records to an underlying stream through a buffer.
type Writer struct {
	bw      *bufio.Writer
	enc     recordEncoder
	closer  io.Closer
	records int
	bytes   int64
}

// NewWriter returns a Writer appending to w. Flush must be called to push
// buffered records to w.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriterSize(w, 1<<20)
	return &Writer{
		bw:  bw,
		enc: kfvecs.NewEncoder[float32](bw),
	}
}

// Create truncates or creates the file at path and returns a Writer that
// owns it. Close flushes and closes the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(values []float32) error {
	if err := w.enc.Write(values); err != nil {
		return err
	}
	w.records++
	w.bytes += RecordSize(len(values))
	return nil
}

// Records returns the number of records written so far.
func (w *Writer) Records() int { return w.records }

// Bytes returns the number of bytes written so far, buffered or not.
func (w *Writer) Bytes() int64 { return w.bytes }

// Flush writes any buffered records to the underlying stream.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes the buffer and closes the file if the Writer owns one.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

// RecordSize returns the encoded size in bytes of a record with dim values.
func RecordSize(dim int) int64 {
	return 4 + 4*int64(dim)
}
