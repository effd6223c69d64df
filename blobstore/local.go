package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/hupe1980/annbench/internal/fs"
	"github.com/hupe1980/annbench/internal/mmap"
)

// LocalStore serves corpora from a directory, typically a shared mount that
// is mirrored into the cache directory by a Fetcher. Blobs are memory-mapped.
type LocalStore struct {
	root string
}

// NewLocalStore returns a store rooted at root. Blob names are
// slash-separated paths relative to it.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) file(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.file(name))
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AdviseSequential)
	return &localBlob{m: m}, nil
}

// List walks root. A missing root lists nothing.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	// WalkDir visits entries in lexical order, so names is already sorted.
	return names, err
}

// Put publishes data under name; readers never observe a partial blob.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	err := fs.Publish(nil, s.file(name), func(f fs.File) error {
		_, err := f.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("blobstore: put %s: %w", name, err)
	}
	return nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return b.m.ReadAt(p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", mmap.ErrOutOfRange, off)
	}
	return view(b.m.Bytes()).section(off, length), nil
}

func (b *localBlob) Size() int64  { return b.m.Len() }
func (b *localBlob) Close() error { return b.m.Close() }

// Bytes exposes the mapping; the slice is invalid after Close.
func (b *localBlob) Bytes() ([]byte, error) {
	if data := b.m.Bytes(); data != nil || b.m.Len() == 0 {
		return data, nil
	}
	return nil, mmap.ErrClosed
}
