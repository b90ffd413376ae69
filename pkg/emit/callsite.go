// Package emit implements the native-operator code-generation emitters:
// the functions that turn a binary or unary operator use, given its
// already-typed call-site arguments, into ir.Instruction sequences plus a
// result variable. Each emitter is a single Builder method call that both
// materializes the result variable and emits its IR against a
// regalloc.Allocator; there is no separate result-only first pass.
package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ctypes"
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

const sizeOfGPR = 8

// Stride returns the size in bytes that a unit pointer increment, or the
// second operand of pointer arithmetic, represents for t: the pointee's
// size for a data pointer, the machine word size for a function pointer
// (which has no pointee layout to stride over), the element size for an
// array, and 1 for any other type.
func Stride(t ctypes.Type) int {
	if t.IsFunctionPointer() {
		return sizeOfGPR
	}
	return t.Stride()
}

// Arg is one argument of a native-operator call site.
type Arg struct {
	// PushedType is the type the argument was pushed with, after any
	// implicit conversion at the call site.
	PushedType ctypes.Type

	// BitSelectOffset/BitSelectSize describe a bitfield selection within
	// Var, in bytes; BitSelectSize equal to PushedType.Size() means no
	// selection is in effect.
	BitSelectOffset int
	BitSelectSize   int

	// Var is the variable this argument originated from; nil if the
	// argument is a pure number.
	Var regalloc.Var

	// Value is the (possibly duplicated) tempvar holding the argument's
	// value for this call, distinct from Var when the argument went
	// through an implicit conversion or duplication.
	Value regalloc.Var

	ByRef    bool
	ToOutput bool
	Volatile bool
	Readonly bool

	// IsNumber marks a compile-time-constant argument; NumberValue then
	// holds its value and Var/Value are unused.
	IsNumber    bool
	NumberValue uint64
}

// CallSite is the descriptor an emitter receives for one operator use.
type CallSite struct {
	Args []*Arg
}

// IsSharedTempVar1 reports whether the first argument's Value tempvar is
// aliased by any other argument in site, or by any argument in others — a
// registered list of other pending call sites sharing the expression's
// evaluation context. When true, an emitter must flush the shared
// register before reassigning it to the caller-visible result variable,
// since writing through it would otherwise corrupt a value another
// pending argument still needs.
func IsSharedTempVar1(site *CallSite, others ...*CallSite) bool {
	if len(site.Args) == 0 || site.Args[0].Value == nil {
		return false
	}
	target := site.Args[0].Value.ID()
	for i, a := range site.Args {
		if i == 0 || a.Value == nil {
			continue
		}
		if a.Value.ID() == target {
			return true
		}
	}
	for _, other := range others {
		for _, a := range other.Args {
			if a.Value != nil && a.Value.ID() == target {
				return true
			}
		}
	}
	return false
}

// VarChange records which bytes of a variable were modified by the most
// recent operator.
type VarChange struct {
	Var    regalloc.Var
	Offset int
	Size   int
}

// PropagateVarChange clamps offset+size to v's size and records the
// change. Emitters call this for every operator whose first operand is
// writable and is a programmer-declared variable — never a temp, a
// readonly, or a dereference.
func PropagateVarChange(v regalloc.Var, offset, size int) VarChange {
	if offset+size > v.Size() {
		size = v.Size() - offset
		if size < 0 {
			size = 0
		}
	}
	return VarChange{Var: v, Offset: offset, Size: size}
}

// SignOrZeroExtendIfNativeType normalizes an immediate literal's bit
// pattern to t's width: truncating to the width, then sign-extending if t
// is signed and the sign bit of that width is set. Non-native types (the
// literal arising from pointer arithmetic, for instance) are returned
// unchanged, since they already carry full machine-word width.
func SignOrZeroExtendIfNativeType(value uint64, t ctypes.Type) uint64 {
	if t.Kind != ctypes.Native {
		return value
	}
	bits := uint(t.Width.Size() * 8)
	if bits >= 64 {
		return value
	}
	mask := uint64(1)<<bits - 1
	value &= mask
	if !t.Width.Unsigned() {
		signBit := uint64(1) << (bits - 1)
		if value&signBit != 0 {
			value |= ^mask
		}
	}
	return value
}

// Builder is the shared state every operator emitter uses: the
// instruction list to append to and the allocator managing registers for
// the function currently being compiled.
type Builder struct {
	Instructions *ir.InstructionList
	Alloc        regalloc.Allocator
	Flags        ir.CompileFlag

	// VarChanges accumulates every VarChange recorded by propagateFirstOperand
	// across the Builder's lifetime, in emission order, for downstream
	// consumers such as cache invalidation or dirty-tracking.
	VarChanges []VarChange
}

// propagateFirstOperand calls PropagateVarChange for arg when it is a
// writable, programmer-declared variable: arg.Var is nil for a pure number,
// a temp, or a dereference, none of which are tracked. The caller is
// responsible for having already rejected a readonly arg.
func (b *Builder) propagateFirstOperand(arg *Arg) {
	if arg.Var == nil {
		return
	}
	b.VarChanges = append(b.VarChanges, PropagateVarChange(arg.Var, arg.BitSelectOffset, arg.BitSelectSize))
}

func (b *Builder) emit(op ir.Op, r1, r2, r3 ir.RegisterAllocatorID, imm *ir.ImmVal) *ir.Instruction {
	return b.Instructions.Append(&ir.Instruction{Op: op, R1: r1, R2: r2, R3: r3, Imm: imm})
}
