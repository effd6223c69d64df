package fvecs

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVectors() [][]float32 {
	return [][]float32{
		{1, 2, 3},
		{},
		{-1.5, 0, float32(math.Copysign(0, -1))},
		{math.MaxFloat32, math.SmallestNonzeroFloat32, -math.MaxFloat32, 1e-20},
		{float32(math.Inf(1)), float32(math.Inf(-1))},
		{0.1},
	}
}

func writeFile(t *testing.T, vectors [][]float32) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.fvecs")
	w, err := Create(path)
	require.NoError(t, err)
	for _, v := range vectors {
		require.NoError(t, w.Write(v))
	}
	require.NoError(t, w.Close())
	return path
}

func requireBitEqual(t *testing.T, want, got [][]float32) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Len(t, got[i], len(want[i]), "record %d", i)
		for j := range want[i] {
			assert.Equal(t, math.Float32bits(want[i][j]), math.Float32bits(got[i][j]), "record %d value %d", i, j)
		}
	}
}

func TestWrite_FormatContract(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []float32{1.0, -2.5}))
	require.NoError(t, Write(&buf, nil))

	expected := make([]byte, 0, 16)
	expected = binary.LittleEndian.AppendUint32(expected, 2)
	expected = binary.LittleEndian.AppendUint32(expected, math.Float32bits(1.0))
	expected = binary.LittleEndian.AppendUint32(expected, math.Float32bits(-2.5))
	expected = binary.LittleEndian.AppendUint32(expected, 0)

	assert.Equal(t, expected, buf.Bytes())
}

func TestWriter_Counts(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write([]float32{1, 2}))
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Flush())

	assert.Equal(t, 2, w.Records())
	assert.Equal(t, int64(16), w.Bytes())
	assert.Equal(t, 16, buf.Len())
}

func TestRoundTrip_BitExact(t *testing.T) {
	vectors := sampleVectors()
	path := writeFile(t, vectors)

	var got [][]float32
	for v, err := range ReadAll(path) {
		require.NoError(t, err)
		got = append(got, v)
	}
	requireBitEqual(t, vectors, got)
}

func TestRoundTrip_EmptyFile(t *testing.T) {
	path := writeFile(t, nil)

	count := 0
	for _, err := range ReadAll(path) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

func TestReader_TruncatedRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []float32{1, 2, 3}))
	require.NoError(t, Write(&buf, []float32{4, 5, 6}))

	tests := []struct {
		name     string
		cut      int
		tail     []byte
		trailing int64
	}{
		{name: "partial values", cut: 2, trailing: 14},
		{name: "only dimension prefix", cut: 12, trailing: 4},
		{name: "partial dimension prefix", cut: 14, trailing: 2},
		{name: "oversized dimension prefix", cut: 16, tail: []byte{0xff, 0xff, 0xff, 0x7f, 1, 2, 3, 4}, trailing: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(bytes.Clone(buf.Bytes()[:buf.Len()-tt.cut]), tt.tail...)
			r := NewReader(bytes.NewReader(data))

			v, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, []float32{1, 2, 3}, v)

			_, err = r.Next()
			require.ErrorIs(t, err, ErrMalformedRecord)

			var mre *MalformedRecordError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, 1, mre.Record)
			assert.Equal(t, int64(16), mre.Offset)
			assert.Equal(t, tt.trailing, mre.Trailing)

			_, again := r.Next()
			assert.Equal(t, err, again)
		})
	}
}

func TestReadAll_StopsOnMalformed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []float32{1, 2}))
	buf.Write([]byte{3, 0, 0, 0, 1})

	path := filepath.Join(t.TempDir(), "broken.fvecs")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	var (
		records int
		lastErr error
	)
	for _, err := range ReadAll(path) {
		if err != nil {
			lastErr = err
			continue
		}
		records++
	}
	assert.Equal(t, 1, records)
	assert.ErrorIs(t, lastErr, ErrMalformedRecord)
}

func TestReadAll_MissingFile(t *testing.T) {
	for _, err := range ReadAll(filepath.Join(t.TempDir(), "missing.fvecs")) {
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestReader_CleanEOF(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Zero(t, r.Records())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, [][]float32{{1, 2}, {3, 4}, {5, 6}})

	all, err := Load(path, 2, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	firstTwo, err := Load(path, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, firstTwo)

	_, err = Load(path, 3, 0)
	var dme *DimensionMismatchError
	require.ErrorAs(t, err, &dme)
	assert.Equal(t, 3, dme.Expected)
	assert.Equal(t, 2, dme.Actual)
}

func TestLoad_MixedDimensions(t *testing.T) {
	path := writeFile(t, [][]float32{{1, 2}, {3}})

	_, err := Load(path, 0, 0)
	var dme *DimensionMismatchError
	require.ErrorAs(t, err, &dme)
	assert.Equal(t, 1, dme.Record)
}

func TestMappedFile(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}, {-7, 8.5, 0}}
	path := writeFile(t, vectors)

	f, err := OpenMapped(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, 3, f.Dim())

	v, err := f.At(2)
	require.NoError(t, err)
	assert.Equal(t, vectors[2], v)

	window, err := f.Slice(1, 3)
	require.NoError(t, err)
	requireBitEqual(t, vectors[1:], window)

	_, err = f.At(3)
	assert.Error(t, err)
	_, err = f.Slice(2, 1)
	assert.Error(t, err)
}

func TestMappedFile_RejectsPartialTail(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []float32{1, 2}))
	require.NoError(t, Write(&buf, []float32{3, 4}))
	data := buf.Bytes()[:buf.Len()-4]

	path := filepath.Join(t.TempDir(), "tail.fvecs")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := OpenMapped(path)
	var mre *MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 1, mre.Record)
	assert.Equal(t, int64(8), mre.Trailing)
}

func TestMappedFile_Empty(t *testing.T) {
	path := writeFile(t, nil)

	f, err := OpenMapped(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, f.Len())
	_, err = f.At(0)
	assert.Error(t, err)
}

func TestReadIvecs(t *testing.T) {
	var buf []byte
	for _, rec := range [][]uint32{{3, 1, 4}, {1, 5, 9}} {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rec)))
		for _, id := range rec {
			buf = binary.LittleEndian.AppendUint32(buf, id)
		}
	}

	path := filepath.Join(t.TempDir(), "gt.ivecs")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	got, err := ReadIvecs(path)
	require.NoError(t, err)
	assert.Equal(t, [][]uint32{{3, 1, 4}, {1, 5, 9}}, got)

	require.NoError(t, os.WriteFile(path, buf[:len(buf)-2], 0o644))
	_, err = ReadIvecs(path)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	corrupt := append(bytes.Clone(buf), 0xff, 0xff, 0xff, 0xff, 7, 0, 0, 0)
	require.NoError(t, os.WriteFile(path, corrupt, 0o644))
	_, err = ReadIvecs(path)
	var mre *MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 2, mre.Record)
	assert.Equal(t, int64(len(buf)), mre.Offset)
	assert.Equal(t, int64(8), mre.Trailing)
}
