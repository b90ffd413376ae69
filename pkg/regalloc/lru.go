package regalloc

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

// LRUAllocator is a reference Allocator sufficient to drive pkg/emit
// end-to-end and to exercise the contract in tests: a fixed register file,
// evicted in least-recently-used order when a new owner needs a register
// and none are free.
type LRUAllocator struct {
	regs []*Reg
	// order lists register indices from least- to most-recently touched;
	// GetRegForVar moves an index to the end when it gives the register a
	// new owner or hands out an owned register ForOutput; a ForInput reuse
	// of an already-owned register leaves the order unchanged.
	order []int
	// byVar maps a live variable's id to the register currently owning it.
	byVar map[uintptr]*Reg

	flush func(r *Reg) // backend hook: write r's dirty value to memory
	load  func(v Var, offset int) uint64
}

// NewLRUAllocator creates an allocator over n general-purpose registers.
// flush is called whenever a dirty register must be written back to its
// variable's memory (eviction, volatile flush, or FlushAll); it may be nil
// in tests that never dirty a register.
func NewLRUAllocator(n int, flush func(r *Reg)) *LRUAllocator {
	a := &LRUAllocator{byVar: make(map[uintptr]*Reg), flush: flush}
	a.regs = make([]*Reg, n)
	for i := range a.regs {
		a.regs[i] = &Reg{ID: ir.RegisterAllocatorID(i)}
		a.order = append(a.order, i)
	}
	return a
}

func (a *LRUAllocator) touch(idx int) {
	for i, v := range a.order {
		if v == idx {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.order = append(a.order, idx)
}

func (a *LRUAllocator) evictOldestUnlocked() *Reg {
	for i, idx := range a.order {
		r := a.regs[idx]
		if r.locked {
			continue
		}
		a.evict(r)
		a.order = append(a.order[:i], a.order[i+1:]...)
		a.order = append(a.order, idx)
		return r
	}
	return nil
}

func (a *LRUAllocator) evict(r *Reg) {
	if r.owner == nil {
		return
	}
	if r.dirty && a.flush != nil {
		a.flush(r)
	}
	delete(a.byVar, r.owner.ID())
	r.owner = nil
	r.dirty = false
}

// GetRegForVar implements Allocator.
func (a *LRUAllocator) GetRegForVar(v Var, useOffset, bitSelectSize int, dir Direction) *Reg {
	if r, ok := a.byVar[v.ID()]; ok {
		r.offset = useOffset
		if dir == ForOutput {
			r.dirty = true
			a.touch(int(r.ID))
		}
		return r
	}

	a.DiscardOverlappingReg(v, useOffset, bitSelectSize, DiscardAllOverlap)

	var r *Reg
	for _, candidate := range a.regs {
		if candidate.owner == nil && !candidate.locked {
			r = candidate
			break
		}
	}
	if r == nil {
		r = a.evictOldestUnlocked()
	}
	if r == nil {
		// Every register is locked: the caller violated the contract by
		// nesting acquisitions beyond what the register file supports.
		panic("regalloc: no free register available")
	}

	r.owner = v
	r.offset = useOffset
	a.byVar[v.ID()] = r
	a.touch(int(r.ID))

	if dir == ForOutput {
		r.dirty = true
	}
	return r
}

// Lock implements Allocator.
func (a *LRUAllocator) Lock(r *Reg) { r.locked = true }

// Unlock implements Allocator.
func (a *LRUAllocator) Unlock(r *Reg) { r.locked = false }

// DiscardOverlappingReg implements Allocator.
func (a *LRUAllocator) DiscardOverlappingReg(v Var, useOffset, size int, mode DiscardMode) {
	except, hasExcept := a.byVar[v.ID()]
	for _, r := range a.regs {
		if r.owner == nil {
			continue
		}
		if mode == DiscardAllOverlapExceptRegForVar && hasExcept && r == except {
			continue
		}
		if r.owner.ID() != v.ID() {
			continue
		}
		lo, hi := useOffset, useOffset+size
		rlo, rhi := r.offset, r.offset+r.owner.Size()
		if lo < rhi && rlo < hi {
			a.evict(r)
		}
	}
}

// Reassign implements Allocator.
func (a *LRUAllocator) Reassign(r *Reg, v Var, offset int) {
	if r.owner != nil {
		delete(a.byVar, r.owner.ID())
	}
	r.owner = v
	r.offset = offset
	a.byVar[v.ID()] = r
	a.touch(int(r.ID))
}

// FlushIfVolatile implements Allocator.
func (a *LRUAllocator) FlushIfVolatile(r *Reg) {
	if r.owner != nil && r.owner.AlwaysVolatile() && r.dirty {
		if a.flush != nil {
			a.flush(r)
		}
		r.dirty = false
	}
}

// FlushAll implements Allocator.
func (a *LRUAllocator) FlushAll() {
	for _, r := range a.regs {
		a.evict(r)
	}
}

// EnsureUnusedRegisters implements Allocator.
func (a *LRUAllocator) EnsureUnusedRegisters(n int) {
	free := 0
	for _, r := range a.regs {
		if r.owner == nil {
			free++
		}
	}
	for free < n {
		if a.evictOldestUnlocked() == nil {
			panic("regalloc: cannot satisfy minimum unused register count")
		}
		free++
	}
}
