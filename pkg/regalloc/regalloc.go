// Package regalloc defines the register-allocator contract native-operator
// emitters depend on, and a reference allocator implementing it against an
// arbitrary fixed register file. Allocation here happens live, during code
// generation, rather than via a precomputed interference graph: each
// emitter asks for a register when it needs one, and the allocator decides
// what to evict.
package regalloc

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

// Direction distinguishes acquiring a register to read a variable's
// current value from acquiring one that will receive a new value.
type Direction int

const (
	// ForInput loads the variable's memory into the register.
	ForInput Direction = iota
	// ForOutput marks the register dirty and moves it to the bottom of
	// the allocator's LRU order, without loading memory.
	ForOutput
)

// DiscardMode controls which registers discard-overlapping-reg evicts when
// a variable's memory region is about to gain a new owning register.
type DiscardMode int

const (
	// DiscardAllOverlap evicts every register whose owned region overlaps
	// the target range.
	DiscardAllOverlap DiscardMode = iota
	// DiscardAllOverlapExceptRegForVar evicts every overlapping register
	// except the one already assigned to the variable being reassigned.
	DiscardAllOverlapExceptRegForVar
)

// Var is the minimal view of a program variable the allocator needs: its
// identity, size in bytes, and volatility. Emitters and the allocator both
// operate against this interface rather than a concrete variable type, so
// pkg/emit and pkg/regalloc do not need to agree on the full symbol-table
// representation.
type Var interface {
	// ID uniquely identifies the variable for allocator bookkeeping.
	ID() uintptr
	// Size is the variable's size in bytes.
	Size() int
	// AlwaysVolatile reports whether the variable must never be cached in
	// a register across more than the single instruction writing it.
	AlwaysVolatile() bool
}

// Reg is an allocator-owned register handle. Callers must call Unlock
// exactly once for every Lock, and must not hold a lock across more than
// the single IR-construction call that required it.
type Reg struct {
	ID     ir.RegisterAllocatorID
	locked bool
	dirty  bool
	owner  Var
	offset int
}

// Allocator is the contract emitters in pkg/emit program against. A single
// Allocator instance is scoped to one function body.
type Allocator interface {
	// GetRegForVar acquires a register holding (for ForInput) or about to
	// receive (for ForOutput) useOffset..useOffset+bitSelectSize of v,
	// allocating, flushing, or discarding other registers as needed.
	GetRegForVar(v Var, useOffset, bitSelectSize int, dir Direction) *Reg

	// Lock prevents r from being evicted by any nested allocator call
	// until Unlock is called. Emitters must lock every register an
	// IR-construction call needs immediately after acquiring it.
	Lock(r *Reg)

	// Unlock releases a lock taken by Lock. It must be called exactly
	// once the IR instruction using r has been emitted.
	Unlock(r *Reg)

	// DiscardOverlappingReg evicts registers whose owned memory overlaps
	// v's useOffset..useOffset+size range, according to mode, before v
	// is assigned a new owning register.
	DiscardOverlappingReg(v Var, useOffset, size int, mode DiscardMode)

	// Reassign retargets r directly at v, recomputing r's tracked offset,
	// instead of emitting a copy instruction — used when an operator's
	// first operand is the same variable whose value was just
	// materialized into a tempvar duplicate.
	Reassign(r *Reg, v Var, offset int)

	// FlushIfVolatile flushes r to memory immediately if its owning
	// variable is AlwaysVolatile, and is a no-op otherwise. Emitters call
	// this after every dirtying write.
	FlushIfVolatile(r *Reg)

	// FlushAll flushes and releases every register, as required at a
	// block boundary (an ir.NOP instruction): no value may be cached
	// across a block boundary.
	FlushAll()

	// EnsureUnusedRegisters guarantees at least n registers are free,
	// evicting by LRU order as needed, before emitting an opcode that
	// internally clobbers scratch registers beyond its declared operands.
	EnsureUnusedRegisters(n int)
}

// MinUnusedRegCountForOp is the driver-supplied table mapping an opcode to
// the minimum count of free registers EnsureUnusedRegisters must guarantee
// before that opcode is emitted. Most opcodes need none beyond their own
// operands; entries are only required for opcodes whose backend lowering
// internally clobbers scratch registers (e.g. a call-style trampoline for
// STACKPAGEALLOC).
var MinUnusedRegCountForOp = map[ir.Op]int{
	ir.STACKPAGEALLOC: 2,
	ir.STACKPAGEFREE:  1,
	ir.PAGEALLOC:      2,
	ir.PAGEALLOCI:     2,
}
