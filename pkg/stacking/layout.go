// Package stacking decides, per function, whether the function needs its
// own stack page or can run inside the cushion its caller's own
// STACKPAGEALLOC already reserved (a "tiny stackframe"), and inserts the
// STACKPAGEALLOC/STACKPAGEFREE prologue and epilogue pair when it can't.
package stacking

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

const pointerSize = 8

// Layout describes one function's stack-frame requirements.
type Layout struct {
	// LocalSize is the aligned byte count of stack space the function's
	// own spill slots and local variables require, not counting anything
	// shared with a caller's frame.
	LocalSize int64

	// UsesOwnFrame is true when the function must emit its own
	// STACKPAGEALLOC/STACKPAGEFREE pair. It is false when the function
	// qualifies for tiny-stackframe sharing: it never itself makes a
	// call (see MakesCall) and its LocalSize fits within the caller's
	// stack-page provision, so it runs entirely inside space the caller
	// already reserved, with no prologue or epilogue of its own.
	UsesOwnFrame bool
}

// ComputeLayout decides fn's frame layout. localSize is the byte count of
// stack space fn's own locals/spill slots require, as tallied by code
// generation. provision is the cushion of extra space every
// STACKPAGEALLOC reserves for its callees' tiny stackframes
// (stackpageallocprovision in the original compiler's compile arguments).
func ComputeLayout(fn *ir.Function, localSize int64, provision int64, flags ir.CompileFlag) *Layout {
	l := &Layout{LocalSize: alignUp(localSize, pointerSize)}

	tinyEligible := !flags.Has(ir.FlagNoStackFrameSharing) &&
		!MakesCall(fn) &&
		l.LocalSize <= provision

	l.UsesOwnFrame = !tinyEligible
	return l
}

// LocalSlotOffset returns the concrete offset from FrameReg for a local
// slot that was tallied at slotOffset bytes into the function's own
// local area.
func (l *Layout) LocalSlotOffset(slotOffset int64) int64 {
	return slotOffset
}

func alignUp(n, align int64) int64 {
	if align <= 0 {
		return n
	}
	return (n + align - 1) / align * align
}
