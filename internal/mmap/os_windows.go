//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// osMap maps exactly size bytes of f. The mapping object is sized to the
// view, so a file that grows after Open does not widen it.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	n := uint64(size)
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY,
		uint32(n>>32), uint32(n), nil)
	if err != nil {
		return nil, nil, os.NewSyscallError("CreateFileMapping", err)
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, nil, os.NewSyscallError("MapViewOfFile", err)
	}
	unmap := func([]byte) error {
		return os.NewSyscallError("UnmapViewOfFile", windows.UnmapViewOfFile(addr))
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), unmap, nil
}

// osAdvise is a no-op; Windows has no madvise.
func osAdvise([]byte, Advice) error { return nil }
