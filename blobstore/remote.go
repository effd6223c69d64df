package blobstore

import (
	"context"
	"io"
	"path"
	"strings"
)

// RangeFunc fetches the inclusive byte range [first, last] of a remote
// object.
type RangeFunc func(ctx context.Context, first, last int64) (io.ReadCloser, error)

// RemoteBlob adapts a ranged GET to the Blob interface. Reads are clamped to
// the object size taken from the HEAD/stat response.
type RemoteBlob struct {
	size  int64
	fetch RangeFunc
}

// NewRemoteBlob returns a blob of size bytes served by fetch.
func NewRemoteBlob(size int64, fetch RangeFunc) *RemoteBlob {
	return &RemoteBlob{size: size, fetch: fetch}
}

func (b *RemoteBlob) Size() int64  { return b.size }
func (b *RemoteBlob) Close() error { return nil }

func (b *RemoteBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.size || length <= 0 {
		return io.NopCloser(strings.NewReader("")), nil
	}
	return b.fetch(ctx, off, min(off+length, b.size)-1)
}

func (b *RemoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	want := min(int64(len(p)), b.size-off)
	rc, err := b.ReadRange(ctx, off, want)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.ReadFull(rc, p[:want])
	if err == nil && want < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

// Keyspace maps blob names to object keys under a bucket prefix such as
// "ann-benchmarks/".
type Keyspace string

// Key returns the object key of name.
func (k Keyspace) Key(name string) string {
	return path.Join(string(k), name)
}

// ListPrefix returns the key prefix matching blob names that start with
// prefix. A directory-style prefix keeps its trailing slash.
func (k Keyspace) ListPrefix(prefix string) string {
	p := k.Key(prefix)
	if p != "" && (prefix == "" || strings.HasSuffix(prefix, "/")) {
		p += "/"
	}
	return p
}

// Name strips the prefix from an object key. Keys outside the prefix or
// naming the prefix itself report false.
func (k Keyspace) Name(key string) (string, bool) {
	if root := strings.TrimSuffix(string(k), "/"); root != "" {
		rest, ok := strings.CutPrefix(key, root+"/")
		if !ok {
			return "", false
		}
		key = rest
	}
	return key, key != ""
}
