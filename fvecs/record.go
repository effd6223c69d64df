package fvecs

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// recordReader splits a stream into dimension-prefixed records. The body is
// buffered as it arrives, so a corrupt prefix on a short stream ends in a
// *MalformedRecordError instead of an allocation of the declared size.
type recordReader struct {
	src     *bufio.Reader
	body    bytes.Buffer
	offset  int64
	records int
}

func newRecordReader(r io.Reader, size int) *recordReader {
	return &recordReader{src: bufio.NewReaderSize(r, size)}
}

// next returns the raw values of the next record. The slice is only valid
// until the following call.
func (r *recordReader) next() ([]byte, error) {
	var head [4]byte
	n, err := io.ReadFull(r.src, head[:])
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case err != nil:
		return nil, r.malformed(int64(n), err)
	}

	dim := int64(binary.LittleEndian.Uint32(head[:]))
	r.body.Reset()
	got, err := io.CopyN(&r.body, r.src, dim*4)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, r.malformed(4+got, err)
	}

	r.offset += 4 + dim*4
	r.records++
	return r.body.Bytes(), nil
}

func (r *recordReader) malformed(trailing int64, cause error) error {
	if !errors.Is(cause, io.ErrUnexpectedEOF) {
		return cause
	}
	return &MalformedRecordError{
		Record:   r.records,
		Offset:   r.offset,
		Trailing: trailing,
		cause:    cause,
	}
}

func decodeFloat32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func decodeUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}
