package stacking

import (
	"testing"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

func TestComputeLayoutAlignsLocalSize(t *testing.T) {
	fn := &ir.Function{}
	l := ComputeLayout(fn, 5, 64, ir.FlagNone)
	if l.LocalSize != 8 {
		t.Fatalf("LocalSize = %d, want 8", l.LocalSize)
	}
}

func TestComputeLayoutTinyWhenNoCallsAndFitsProvision(t *testing.T) {
	fn := &ir.Function{}
	fn.Instructions.Append(&ir.Instruction{Op: ir.ADD})
	l := ComputeLayout(fn, 16, 64, ir.FlagNone)
	if l.UsesOwnFrame {
		t.Fatal("expected tiny-stackframe sharing")
	}
}

func TestComputeLayoutOwnFrameWhenFunctionMakesCall(t *testing.T) {
	fn := &ir.Function{}
	fn.Instructions.Append(&ir.Instruction{Op: ir.JL})
	l := ComputeLayout(fn, 16, 64, ir.FlagNone)
	if !l.UsesOwnFrame {
		t.Fatal("a function that itself calls must get its own frame")
	}
}

func TestComputeLayoutOwnFrameWhenLocalSizeExceedsProvision(t *testing.T) {
	fn := &ir.Function{}
	l := ComputeLayout(fn, 128, 64, ir.FlagNone)
	if !l.UsesOwnFrame {
		t.Fatal("a function whose locals exceed the provision must get its own frame")
	}
}

func TestComputeLayoutOwnFrameWhenSharingDisabled(t *testing.T) {
	fn := &ir.Function{}
	l := ComputeLayout(fn, 8, 64, ir.FlagNoStackFrameSharing)
	if !l.UsesOwnFrame {
		t.Fatal("FlagNoStackFrameSharing must disable tiny-stackframe sharing")
	}
}
