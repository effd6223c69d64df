package fvecs

import (
	"bufio"
	"io"
	"os"

	kfvecs "github.com/kshard/fvecs"
)

// ReadIvecs reads a ground-truth file of uint32 neighbor lists, one record
// per query, in the same dimension-prefixed layout.
func ReadIvecs(path string) ([][]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rr := newRecordReader(f, 64<<10)
	var out [][]uint32
	for {
		b, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, decodeUint32s(b))
	}
}

// WriteIvecs writes one uint32 record per row, the layout of published
// ground-truth files.
func WriteIvecs(w io.Writer, rows [][]uint32) error {
	bw := bufio.NewWriter(w)
	enc := kfvecs.NewEncoder[uint32](bw)
	for _, row := range rows {
		if err := enc.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}
