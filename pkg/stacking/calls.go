package stacking

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

// callOps are the opcodes that themselves transfer control the way a
// function call does: the link-style branches the tiny-stackframe
// invariant forbids a shared-frame function from emitting, since such a
// call may run code that overwrites stack space above the page the stack
// pointer was backtracked to. STACKPAGEALLOC/STACKPAGEFREE are the sole
// documented exception to the no-call rule (a backend may implement them
// with a call-like trampoline even though the stack pointer is guaranteed
// to be at the top of the callstack whenever they run) and so are
// deliberately not included here.
var callOps = map[ir.Op]bool{
	ir.JL:     true,
	ir.JLI:    true,
	ir.JLR:    true,
	ir.JPUSH:  true,
	ir.JPUSHI: true,
	ir.JPUSHR: true,
}

// MakesCall reports whether fn's body contains any call-style
// instruction.
func MakesCall(fn *ir.Function) bool {
	found := false
	fn.Instructions.Walk(func(in *ir.Instruction) bool {
		if callOps[in.Op] {
			found = true
			return false
		}
		return true
	})
	return found
}

// isReturn reports whether op is the return half of the stack-push
// calling convention. A function using JL/JLR-style linking instead
// returns through an indirect jump of the saved return address, which is
// indistinguishable at this layer from any other register-indirect jump;
// a function that needs its own frame (MakesCall true) is expected to use
// the JPUSH/JPOP convention for that reason, so epilogue insertion only
// needs to recognize JPOP.
func isReturn(op ir.Op) bool {
	return op == ir.JPOP
}
