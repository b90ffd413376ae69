package stacking

import (
	"testing"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

func TestMakesCallDetectsLinkFamily(t *testing.T) {
	for _, op := range []ir.Op{ir.JL, ir.JLI, ir.JLR, ir.JPUSH, ir.JPUSHI, ir.JPUSHR} {
		fn := &ir.Function{}
		fn.Instructions.Append(&ir.Instruction{Op: ir.ADD})
		fn.Instructions.Append(&ir.Instruction{Op: op})
		if !MakesCall(fn) {
			t.Fatalf("%v should count as a call", op)
		}
	}
}

func TestMakesCallIgnoresStackPageOps(t *testing.T) {
	fn := &ir.Function{}
	fn.Instructions.Append(&ir.Instruction{Op: ir.STACKPAGEALLOC})
	fn.Instructions.Append(&ir.Instruction{Op: ir.STACKPAGEFREE})
	if MakesCall(fn) {
		t.Fatal("stack-page allocation is the documented exception to the no-call rule")
	}
}

func TestMakesCallFalseForPlainArithmetic(t *testing.T) {
	fn := &ir.Function{}
	fn.Instructions.Append(&ir.Instruction{Op: ir.ADD})
	fn.Instructions.Append(&ir.Instruction{Op: ir.JPOP})
	if MakesCall(fn) {
		t.Fatal("JPOP is a return, not a call")
	}
}
