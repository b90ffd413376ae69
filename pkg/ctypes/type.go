// Package ctypes implements the native-operator emitters' type grammar as a
// tagged sum rather than the original textual leading/trailing-character
// dispatch: native widths, pointers, function pointers, arrays, the by-ref
// argument marker, and enums.
package ctypes

import "fmt"

// Kind discriminates the variants of Type.
type Kind int

const (
	Native Kind = iota
	Pointer
	FunctionPointer
	Array
	ByRef
	Enum
)

// Width names the eight native integer widths, signed and unsigned.
type Width int

const (
	S8 Width = iota
	U8
	S16
	U16
	S32
	U32
	S64
	U64
)

var widthNames = map[Width]string{
	S8: "s8", U8: "u8", S16: "s16", U16: "u16",
	S32: "s32", U32: "u32", S64: "s64", U64: "u64",
}

var widthSizes = map[Width]int{
	S8: 1, U8: 1, S16: 2, U16: 2, S32: 4, U32: 4, S64: 8, U64: 8,
}

func (w Width) String() string { return widthNames[w] }

// Unsigned reports whether w is one of the unsigned widths.
func (w Width) Unsigned() bool {
	switch w {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// Size returns the width's size in bytes.
func (w Width) Size() int { return widthSizes[w] }

// Type is the tagged sum of Lyrical's type grammar.
//
// Native widths use Width; Pointer/ByRef wrap an Elem; FunctionPointer
// carries a Return type and Params; Array wraps an Elem with a fixed Len;
// Enum carries only a Name (enums are disjoint from integers solely by
// linking signature, not by representation).
type Type struct {
	Kind Kind

	Width Width // valid when Kind == Native

	Elem *Type // valid when Kind is Pointer, ByRef, or Array

	Return *Type  // valid when Kind == FunctionPointer
	Params []Type // valid when Kind == FunctionPointer

	Len int // valid when Kind == Array

	Name string // valid when Kind == Enum
}

// NewNative returns the native type of the given width.
func NewNative(w Width) Type { return Type{Kind: Native, Width: w} }

// NewPointer returns a pointer-to-elem type.
func NewPointer(elem Type) Type { return Type{Kind: Pointer, Elem: &elem} }

// NewByRef returns the by-ref marker wrapping elem, legal only as a
// function argument type.
func NewByRef(elem Type) Type { return Type{Kind: ByRef, Elem: &elem} }

// NewArray returns a fixed-length array-of-elem type.
func NewArray(elem Type, length int) Type {
	return Type{Kind: Array, Elem: &elem, Len: length}
}

// NewFunctionPointer returns a function-pointer type.
func NewFunctionPointer(ret Type, params []Type) Type {
	return Type{Kind: FunctionPointer, Return: &ret, Params: params}
}

// NewEnum returns an enum type, distinguished from native integers only by
// its linking signature (name), never by representation.
func NewEnum(name string) Type { return Type{Kind: Enum, Name: name} }

// IsPointer reports whether t is a pointer or function-pointer type — the
// property the original leading/trailing-character dispatch tested via the
// last byte of the type string being '*' or ')'.
func (t Type) IsPointer() bool { return t.Kind == Pointer || t.Kind == FunctionPointer }

// IsFunctionPointer reports whether t is specifically a function pointer.
func (t Type) IsFunctionPointer() bool { return t.Kind == FunctionPointer }

// IsUnsigned reports whether t should dispatch to the unsigned/logical
// family of native operators: true for unsigned native widths and for any
// pointer type (pointer arithmetic is always unsigned), matching the
// original 'u'/'#'-leading-byte convention.
func (t Type) IsUnsigned() bool {
	switch t.Kind {
	case Native:
		return t.Width.Unsigned()
	case Pointer, FunctionPointer:
		return true
	default:
		return false
	}
}

// Stride returns the number of bytes a unit increment/decrement or pointer
// arithmetic offset represents for t: the pointee's size for pointers and
// arrays, 1 for everything else, function pointers included (emit.Stride
// substitutes the machine word size for a function pointer).
func (t Type) Stride() int {
	switch t.Kind {
	case Pointer:
		return t.Elem.Size()
	case Array:
		return t.Elem.Size()
	default:
		return 1
	}
}

// Size returns t's size in bytes, as used by Stride and by frame/argument
// layout. Function-pointer and by-ref types are sized as a single
// machine-word pointer; the zero value for an unresolved enum defaults to a
// machine word as well, since its storage is always an integer register.
func (t Type) Size() int {
	const wordSize = 8
	switch t.Kind {
	case Native:
		return t.Width.Size()
	case Pointer, FunctionPointer, ByRef, Enum:
		return wordSize
	case Array:
		return t.Elem.Size() * t.Len
	default:
		return wordSize
	}
}

// String renders t back into Lyrical's surface type syntax, e.g. "u32*",
// "s8[4]", "void(u32,u32&)".
func (t Type) String() string {
	switch t.Kind {
	case Native:
		return t.Width.String()
	case Pointer:
		return t.Elem.String() + "*"
	case ByRef:
		return t.Elem.String() + "&"
	case Array:
		return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len)
	case Enum:
		return t.Name
	case FunctionPointer:
		s := t.Return.String() + "("
		for i, p := range t.Params {
			if i > 0 {
				s += ","
			}
			s += p.String()
		}
		return s + ")"
	default:
		return "?"
	}
}

// Equal reports structural equality, used by the emitter layer to decide
// whether two operands require an implicit conversion.
func (t Type) Equal(o Type) bool { return t.String() == o.String() }
