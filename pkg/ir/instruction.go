package ir

// RegisterAllocatorID is the numeric id the register allocator assigns a
// virtual register; id 0 is always the stack-pointer register and is
// always considered in use, which is why it terminates UnusedRegs rather
// than requiring a separate length field.
type RegisterAllocatorID = uint

// DebugInfo records where an instruction originated, used both for
// diagnostics and for the binary debug-info section a backend may emit.
type DebugInfo struct {
	FilePath   string
	LineNumber uint
	LineOffset uint

	// BinOffset is not set at IR-construction time; a backend fills it in
	// to report where in the generated binary this instruction landed, so
	// a later backend stage (or a debugger) can map back to source.
	BinOffset uint
}

// Instruction is one three-address IR instruction, linked into its
// function's circular instruction list via Prev/Next.
type Instruction struct {
	prev, next *Instruction

	Op Op

	// R1, R2, R3 are virtual register ids, meaningful only for the subset
	// of operands Op actually uses.
	R1, R2, R3 RegisterAllocatorID

	// Imm is set when Op uses an immediate operand; its value is the sum
	// of every linked ImmVal term.
	Imm *ImmVal

	// OpaquePayload holds raw bytes for MACHINECODE or text for COMMENT;
	// unused otherwise. A backend must preserve MACHINECODE bytes exactly,
	// since their encoding is entirely the backend's concern.
	OpaquePayload string

	// BinSize, when non-zero, is the byte size the binary equivalent of
	// this instruction must occupy; it must be a multiple of the target's
	// NOP instruction size, since backends pad with NOPs.
	BinSize uint

	// UnusedRegs, when non-nil, lists register ids that were unallocated
	// when this instruction was generated, terminated by register id 0
	// (the always-in-use stack pointer register).
	UnusedRegs []RegisterAllocatorID

	DebugInfo DebugInfo

	// BackendSlot is not set during compilation; a backend uses it to
	// associate its own data with this instruction during lowering.
	BackendSlot any
}

// Next returns the instruction following i in its function's circular
// list.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the instruction preceding i in its function's circular
// list.
func (i *Instruction) Prev() *Instruction { return i.prev }

