package fs

import (
	"io"
	"os"
	"path/filepath"
)

// PartSuffix marks an artifact that is still being written.
const PartSuffix = ".part"

// File is an artifact being written.
type File interface {
	io.Writer
	io.WriterAt
	io.Closer
	Sync() error
}

// FileSystem is what publishing an artifact needs from the OS.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

// OS is the FileSystem backed by package os.
type OS struct{}

func (OS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}
func (OS) Remove(name string) error                     { return os.Remove(name) }
func (OS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (OS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Default is used when no FileSystem is injected.
var Default FileSystem = OS{}

// Publish creates dst's directory, lets write fill dst+PartSuffix and then
// syncs, closes and renames it to dst. On any error the part file is removed
// and dst is left untouched.
func Publish(fsys FileSystem, dst string, write func(File) error) (err error) {
	if fsys == nil {
		fsys = Default
	}
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	part := dst + PartSuffix
	f, err := fsys.OpenFile(part, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = f.Close()
		}
		_ = fsys.Remove(part)
	}()

	if err = write(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	closed = true
	if err = f.Close(); err != nil {
		return err
	}
	return fsys.Rename(part, dst)
}
