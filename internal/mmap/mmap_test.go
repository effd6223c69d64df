package mmap

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.fvecs")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// record encodes one fvecs record.
func record(values ...float32) []byte {
	b := binary.LittleEndian.AppendUint32(nil, uint32(len(values)))
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func TestMapping_Records(t *testing.T) {
	data := append(record(1, 2), record(-0.5, 3.25)...)
	m, err := Open(writeTemp(t, data))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Advise(AdviseRandom))
	assert.Equal(t, int64(24), m.Len())

	dim, err := m.Uint32(12)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), dim)

	v := make([]float32, 2)
	require.NoError(t, m.Float32s(16, v))
	assert.Equal(t, []float32{-0.5, 3.25}, v)

	sec, err := m.Section(0, 12)
	require.NoError(t, err)
	assert.Equal(t, record(1, 2), sec)
}

func TestMapping_OutOfRange(t *testing.T) {
	m, err := Open(writeTemp(t, record(1)))
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Section(4, 8)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.Section(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.Uint32(6)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, m.Float32s(4, make([]float32, 2)), ErrOutOfRange)
}

func TestMapping_ReadAt(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("0123456789")))
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(buf[:n]))

	n, err = m.ReadAt(make([]byte, 8), 6)
	assert.Equal(t, 4, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, 10)
	assert.Equal(t, io.EOF, err)
	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMapping_EmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.Len())
	assert.Nil(t, m.Bytes())
	assert.NoError(t, m.Advise(AdviseSequential))
	_, err = m.Uint32(0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMapping_AfterClose(t *testing.T) {
	m, err := Open(writeTemp(t, record(7)))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AdviseRandom), ErrClosed)
	_, err = m.Section(0, 4)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.fvecs"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
