package stacking

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

// FrameReg is the virtual register id the prologue assigns the newly
// allocated stack page's base address to, and the epilogue later frees
// from. Register id 0 is reserved for the stack pointer (see
// ir.RegisterAllocatorID), so the frame-base register is the next id.
const FrameReg ir.RegisterAllocatorID = 1

// InsertFrames walks every function in fns and, for each whose layout says
// it needs its own stack page, inserts the STACKPAGEALLOC prologue at the
// function's entry and a STACKPAGEFREE epilogue before every return.
// Functions eligible for tiny-stackframe sharing are left untouched.
func InsertFrames(fns *ir.FunctionList, layouts map[*ir.Function]*Layout) {
	fns.Walk(func(fn *ir.Function) bool {
		l := layouts[fn]
		if l == nil || !l.UsesOwnFrame {
			return true
		}
		generatePrologue(fn, l)
		generateEpilogue(fn, l)
		return true
	})
}

// generatePrologue inserts the STACKPAGEALLOC instruction before fn's
// first existing instruction, allocating LocalSize bytes and leaving the
// new page's base address in FrameReg.
func generatePrologue(fn *ir.Function, l *Layout) {
	alloc := &ir.Instruction{
		Op:  ir.STACKPAGEALLOC,
		R1:  FrameReg,
		Imm: ir.NewLiteral(uint64(l.LocalSize)),
	}
	fn.Instructions.InsertBefore(fn.Instructions.Head(), alloc)
}

// generateEpilogue inserts a STACKPAGEFREE of FrameReg immediately before
// every JPOP found in fn's body: a function may return through more than
// one such instruction, one per return statement compiled.
func generateEpilogue(fn *ir.Function, l *Layout) {
	var returns []*ir.Instruction
	fn.Instructions.Walk(func(in *ir.Instruction) bool {
		if isReturn(in.Op) {
			returns = append(returns, in)
		}
		return true
	})
	for _, ret := range returns {
		free := &ir.Instruction{Op: ir.STACKPAGEFREE, R1: FrameReg}
		fn.Instructions.InsertBefore(ret, free)
	}
}
