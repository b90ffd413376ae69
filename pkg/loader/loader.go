// Package loader implements the minimal runtime-loader contract spec.md
// treats as an external collaborator: mapping a backend's executable
// bytes into memory and switching the mapping from writable (while the
// image is being populated) to executable. Installing syscall
// trampolines, handling page faults against a debug-info-driven decoder,
// and actually transferring control into machine code are all explicitly
// out of scope; this package stops at the point a real loader would take
// over.
package loader

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Image is a compiled program mapped into its own anonymous memory
// region: the executable bytes (instructions then constant strings)
// followed by a zeroed global-variable region, sized by the caller since
// a BackendResult never stores that size itself (see cache.Program).
type Image struct {
	mem []byte
}

// Load maps exe, followed by a zeroed region of globalRegionSize bytes,
// into a fresh anonymous, writable mapping.
func Load(exe []byte, globalRegionSize uint64) (*Image, error) {
	total := uint64(len(exe)) + globalRegionSize
	pageSize := uint64(unix.Getpagesize())
	mapped := roundUp(total, pageSize)
	if mapped == 0 {
		mapped = pageSize
	}

	mem, err := unix.Mmap(-1, 0, int(mapped), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("loader: mmap: %w", err)
	}
	copy(mem, exe)
	// mem[len(exe):] is the global region; MAP_ANON guarantees it arrives
	// zeroed.
	return &Image{mem: mem}, nil
}

// MakeExecutable switches the image's pages from writable to
// read-and-execute, the point at which a real loader would hand off to
// the mapped code. This package goes no further: there is no concrete
// x86/x64 encoding behind these bytes to jump into.
func (img *Image) MakeExecutable() error {
	if err := unix.Mprotect(img.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("loader: mprotect: %w", err)
	}
	return nil
}

// EntryPoint returns the address of the byte at offset off within the
// mapped image, the address a real loader would transfer control to for
// a program's exported entry point.
func (img *Image) EntryPoint(off uint64) uintptr {
	return uintptr(unsafe.Pointer(&img.mem[off]))
}

// Bytes exposes the mapped region directly, for inspection rather than
// execution.
func (img *Image) Bytes() []byte { return img.mem }

// Unmap releases the image's pages.
func (img *Image) Unmap() error {
	if err := unix.Munmap(img.mem); err != nil {
		return fmt.Errorf("loader: munmap: %w", err)
	}
	return nil
}

func roundUp(n, align uint64) uint64 {
	if align == 0 {
		return n
	}
	return (n + align - 1) / align * align
}
