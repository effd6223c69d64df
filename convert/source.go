package convert

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression suffixes recognized by OpenSource and DerivedPath.
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
	SuffixLZ4  = ".lz4"
)

// FvecsSuffix is the extension of converted artifacts.
const FvecsSuffix = ".fvecs"

// OpenSource opens a corpus file, transparently decompressing it when its
// name ends in .gz, .zst or .lz4.
func OpenSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case SuffixGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case SuffixZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return &stackedReader{Reader: dec, closers: []io.Closer{dec.IOReadCloser(), f}}, nil
	case SuffixLZ4:
		return &stackedReader{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StripCompression removes a recognized compression suffix from path.
func StripCompression(path string) string {
	switch ext := filepath.Ext(path); ext {
	case SuffixGzip, SuffixZstd, SuffixLZ4:
		return strings.TrimSuffix(path, ext)
	}
	return path
}

// DerivedPath returns the path of the fvecs artifact converted from src: the
// compression suffix is dropped and the remaining extension swapped for
// .fvecs, so docs.json.gz becomes docs.fvecs.
func DerivedPath(src string) string {
	base := StripCompression(src)
	return strings.TrimSuffix(base, filepath.Ext(base)) + FvecsSuffix
}

// IsFvecs reports whether path names a file already in fvecs format.
func IsFvecs(path string) bool {
	return Kind(path) == KindFvecs
}

// SourceKind classifies a corpus file by the adapter that converts it.
type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindFvecs
	KindEmbeddings
	KindQueryLog
)

func (k SourceKind) String() string {
	switch k {
	case KindFvecs:
		return "fvecs"
	case KindEmbeddings:
		return "embeddings"
	case KindQueryLog:
		return "querylog"
	default:
		return "unknown"
	}
}

// Kind classifies path by its extension after removing compression.
func Kind(path string) SourceKind {
	switch filepath.Ext(StripCompression(path)) {
	case FvecsSuffix:
		return KindFvecs
	case ".json", ".jsonl":
		return KindEmbeddings
	case ".txt":
		return KindQueryLog
	default:
		return KindUnknown
	}
}
