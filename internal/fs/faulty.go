package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is returned by a Fault that carries no Err of its own.
var ErrInjected = errors.New("fs: injected fault")

// Fault is a failure injected into files matching a rule.
type Fault struct {
	// FailAfterBytes fails the write that would push the file past this
	// many bytes. Zero fails the first write; negative never fails.
	FailAfterBytes int64
	FailOnSync     bool
	FailOnClose    bool
	FailOnRename   bool
	Err            error
}

func (f Fault) error() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

type rule struct {
	substr string
	fault  Fault
}

// FaultyFS forwards to an inner FileSystem and injects the fault of the
// first rule whose substring occurs in a file name.
type FaultyFS struct {
	inner FileSystem

	mu      sync.Mutex
	rules   []rule
	written int64
}

// NewFaultyFS wraps inner, or Default when inner is nil.
func NewFaultyFS(inner FileSystem) *FaultyFS {
	if inner == nil {
		inner = Default
	}
	return &FaultyFS{inner: inner}
}

// AddRule injects fault into files whose name contains substr.
func (f *FaultyFS) AddRule(substr string, fault Fault) {
	f.mu.Lock()
	f.rules = append(f.rules, rule{substr, fault})
	f.mu.Unlock()
}

// Written is the number of bytes that reached the inner file system.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

func (f *FaultyFS) lookup(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if strings.Contains(name, r.substr) {
			return r.fault, true
		}
	}
	return Fault{FailAfterBytes: -1}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	inner, err := f.inner.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	fault, _ := f.lookup(name)
	return &faultyFile{File: inner, owner: f, fault: fault}, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.lookup(oldpath); ok && fault.FailOnRename {
		return fault.error()
	}
	return f.inner.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error                     { return f.inner.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error)        { return f.inner.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error { return f.inner.MkdirAll(path, perm) }

type faultyFile struct {
	File
	owner *FaultyFS
	fault Fault

	mu   sync.Mutex
	size int64
}

// admit accounts for n more bytes or fails when the budget is exceeded.
func (ff *faultyFile) admit(n int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if limit := ff.fault.FailAfterBytes; limit >= 0 && ff.size+int64(n) > limit {
		return ff.fault.error()
	}
	ff.size += int64(n)

	ff.owner.mu.Lock()
	ff.owner.written += int64(n)
	ff.owner.mu.Unlock()
	return nil
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if err := ff.admit(len(p)); err != nil {
		return 0, err
	}
	return ff.File.Write(p)
}

func (ff *faultyFile) WriteAt(p []byte, off int64) (int, error) {
	if err := ff.admit(len(p)); err != nil {
		return 0, err
	}
	return ff.File.WriteAt(p, off)
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.error()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	err := ff.File.Close()
	if ff.fault.FailOnClose {
		return ff.fault.error()
	}
	return err
}
