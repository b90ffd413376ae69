package ctypes

import "testing"

func TestNativeStringAndSize(t *testing.T) {
	ty := NewNative(U32)
	if ty.String() != "u32" {
		t.Fatalf("String() = %q", ty.String())
	}
	if ty.Size() != 4 {
		t.Fatalf("Size() = %d", ty.Size())
	}
	if !ty.IsUnsigned() {
		t.Fatal("u32 should be unsigned")
	}
	if ty.IsPointer() {
		t.Fatal("u32 should not be a pointer")
	}
}

func TestPointerStrideUsesElemSize(t *testing.T) {
	ty := NewPointer(NewNative(U32))
	if ty.String() != "u32*" {
		t.Fatalf("String() = %q", ty.String())
	}
	if ty.Stride() != 4 {
		t.Fatalf("Stride() = %d", ty.Stride())
	}
	if !ty.IsPointer() || !ty.IsUnsigned() {
		t.Fatal("pointer types are pointer and unsigned")
	}
}

func TestFunctionPointerIsPointerButStrideOne(t *testing.T) {
	ty := NewFunctionPointer(NewNative(S32), []Type{NewNative(U32), NewByRef(NewNative(U32))})
	if !ty.IsFunctionPointer() || !ty.IsPointer() {
		t.Fatal("expected function pointer classification")
	}
	if ty.Stride() != 1 {
		t.Fatalf("Stride() = %d, want 1 for function pointer", ty.Stride())
	}
	if got, want := ty.String(), "s32(u32,u32&)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestArraySizeAndStride(t *testing.T) {
	ty := NewArray(NewNative(S8), 4)
	if ty.String() != "s8[4]" {
		t.Fatalf("String() = %q", ty.String())
	}
	if ty.Size() != 4 {
		t.Fatalf("Size() = %d", ty.Size())
	}
	if ty.Stride() != 1 {
		t.Fatalf("Stride() = %d", ty.Stride())
	}
}

func TestEnumDisjointFromIntegersByName(t *testing.T) {
	a := NewEnum("Color")
	b := NewEnum("Color")
	c := NewEnum("Shape")
	if !a.Equal(b) {
		t.Fatal("same-named enums should be equal")
	}
	if a.Equal(c) {
		t.Fatal("differently-named enums should not be equal")
	}
	if a.IsUnsigned() || a.IsPointer() {
		t.Fatal("enum is neither unsigned nor pointer by default")
	}
}

func TestByRefWraps(t *testing.T) {
	ty := NewByRef(NewNative(U32))
	if ty.String() != "u32&" {
		t.Fatalf("String() = %q", ty.String())
	}
}
