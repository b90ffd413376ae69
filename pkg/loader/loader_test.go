package loader

import (
	"bytes"
	"testing"
	"unsafe"
)

func TestLoadCopiesExecutableAndZeroesGlobalRegion(t *testing.T) {
	exe := []byte("instructions-and-constants")
	img, err := Load(exe, 16)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Unmap()

	if !bytes.Equal(img.Bytes()[:len(exe)], exe) {
		t.Fatalf("mapped executable bytes = %q, want %q", img.Bytes()[:len(exe)], exe)
	}
	globalRegion := img.Bytes()[len(exe) : len(exe)+16]
	for i, b := range globalRegion {
		if b != 0 {
			t.Fatalf("global region byte %d = %d, want 0", i, b)
		}
	}
}

func TestLoadMapsAtLeastOneFullPage(t *testing.T) {
	img, err := Load([]byte("x"), 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Unmap()

	if len(img.Bytes()) == 0 {
		t.Fatal("expected a non-empty mapping even for a tiny image")
	}
}

func TestEntryPointAddressesMappedBytes(t *testing.T) {
	exe := []byte("ABCDEFGH")
	img, err := Load(exe, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Unmap()

	addr := img.EntryPoint(2)
	want := uintptr(unsafe.Pointer(&img.Bytes()[2]))
	if addr != want {
		t.Fatal("EntryPoint should address the requested offset within the mapping")
	}
}

func TestMakeExecutableSucceeds(t *testing.T) {
	img, err := Load([]byte("no-op-program"), 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer img.Unmap()

	if err := img.MakeExecutable(); err != nil {
		t.Fatalf("make executable: %v", err)
	}
}
