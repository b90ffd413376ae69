package backend

import (
	"fmt"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

// lineWidth fields are zero-padded to a fixed width so that an
// instruction's rendered byte length never depends on the operand values
// it carries, only on their presence; this lets TextBackend compute every
// instruction's and function's offset in one pass, before any immediate
// that references another instruction's or function's offset has been
// resolved.
const (
	mnemonicWidth = 16
	regWidth      = 10
	immWidth      = 20 // decimal digits needed for the largest uint64
)

// TextBackend is a reference Backend that renders instructions as
// readable mnemonic lines instead of real machine code, in the spirit of
// original_source's lyricalbackendtext.c. Its "instructions" partition is
// therefore ordinary text, one fixed-layout line per instruction, and its
// "constants" partition is the compile result's string region verbatim.
type TextBackend struct{}

// Assemble implements Backend.
func (b TextBackend) Assemble(result *CompileResult) (*BackendResult, error) {
	instrOffset := map[*ir.Instruction]uint64{}
	funcOffset := map[*ir.Function]uint64{}

	// Pass 1: lay out every instruction, recording its offset without
	// resolving any immediate (a placeholder renders to the same length
	// as any real value, since every numeric field is a fixed width).
	var cursor uint64
	result.Functions.Walk(func(fn *ir.Function) bool {
		funcOffset[fn] = cursor
		fn.Instructions.Walk(func(in *ir.Instruction) bool {
			instrOffset[in] = cursor
			cursor += uint64(len(renderLine(in, 0)))
			return true
		})
		return true
	})
	instructionsSize := cursor

	resolve := func(in *ir.Instruction) (uint64, error) {
		if in.Imm == nil {
			return 0, nil
		}
		var sum uint64
		for _, term := range in.Imm.Terms() {
			switch term.Kind {
			case ir.ImmValue:
				sum += term.N
			case ir.ImmOffsetToInstruction:
				off, ok := instrOffset[term.Instr]
				if !ok {
					return 0, fmt.Errorf("immediate references an instruction outside this compile result")
				}
				sum += off
			case ir.ImmOffsetToFunction:
				off, ok := funcOffset[term.Func]
				if !ok {
					return 0, fmt.Errorf("immediate references a function outside this compile result")
				}
				sum += off
			case ir.ImmOffsetToGlobalRegion:
				// The global region is allocated by the loader, not laid
				// out here; the term's own N already holds the intended
				// offset within that region.
				sum += term.N
			case ir.ImmOffsetToStringRegion:
				// Constants sit immediately after instructions in the
				// final executable, so an absolute offset into the
				// executable is instructionsSize plus the offset within
				// the region itself.
				sum += instructionsSize + term.N
			default:
				return 0, fmt.Errorf("unknown immediate term kind %d", term.Kind)
			}
		}
		return sum, nil
	}

	// Pass 2: render every instruction for real, now that every offset is
	// known.
	exe := make([]byte, 0, instructionsSize+uint64(len(result.StringRegion)))
	var renderErr error
	result.Functions.Walk(func(fn *ir.Function) bool {
		fn.Instructions.Walk(func(in *ir.Instruction) bool {
			imm, err := resolve(in)
			if err != nil {
				renderErr = err
				return false
			}
			exe = append(exe, renderLine(in, imm)...)
			return true
		})
		return renderErr == nil
	})
	if renderErr != nil {
		return nil, renderErr
	}
	if uint64(len(exe)) != instructionsSize {
		return nil, fmt.Errorf("internal error: rendered %d bytes, expected %d", len(exe), instructionsSize)
	}
	exe = append(exe, result.StringRegion...)

	var exports []ExportEntry
	var imports []ImportEntry
	result.Functions.Walk(func(fn *ir.Function) bool {
		if fn.ToExport {
			exports = append(exports, ExportEntry{
				Signature: fn.LinkingSignature,
				Offset:    funcOffset[fn],
			})
		}
		if fn.ToImport != 0 {
			imports = append(imports, ImportEntry{
				Signature: fn.LinkingSignature,
				Offset:    uint64(fn.ToImport - 1),
			})
		}
		return true
	})

	res := &BackendResult{
		Executable:       exe,
		InstructionsSize: instructionsSize,
		ConstantsSize:    uint64(len(result.StringRegion)),
		ExportTable:      exports,
		ImportTable:      imports,
	}

	if result.Flags.Has(ir.FlagDebugInfo) {
		dbg := BuildDebugInfo(result.Functions)
		// BuildDebugInfo walks functions/instructions in the same order as
		// pass 1/2 above, so the i-th entry corresponds to the i-th
		// instruction visited; overwrite BinOffset with the offset computed
		// during layout, since TextBackend never sets
		// ir.Instruction.DebugInfo.BinOffset on the IR itself.
		i := 0
		result.Functions.Walk(func(fn *ir.Function) bool {
			fn.Instructions.Walk(func(in *ir.Instruction) bool {
				dbg.Entries[i].BinOffset = instrOffset[in]
				i++
				return true
			})
			return true
		})
		res.DebugInfo = dbg
	}

	return res, nil
}

// renderLine renders one instruction as a fixed-layout text line. imm is
// the already-resolved immediate value; callers computing layout only
// (pass 1) may pass 0, since every numeric field's width is independent
// of its value.
func renderLine(in *ir.Instruction, imm uint64) string {
	return fmt.Sprintf("%-*s r1=%0*d r2=%0*d r3=%0*d imm=%0*d payload=%q\n",
		mnemonicWidth, in.Op.String(),
		regWidth, in.R1,
		regWidth, in.R2,
		regWidth, in.R3,
		immWidth, imm,
		in.OpaquePayload,
	)
}
