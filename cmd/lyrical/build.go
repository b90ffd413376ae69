package main

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/backend"
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

// buildCompileResult turns preprocessed source into a backend.CompileResult.
//
// The expression parser and type system that would normally drive
// pkg/emit's native-operator handlers from real Lyrical syntax are, per the
// core's own scope, an external collaborator: nothing in this repository
// specifies their grammar. Rather than invent one, this step demonstrates
// the rest of the pipeline honestly: it builds a single exported function
// named "main" whose body is a COMMENT instruction carrying the
// preprocessed source verbatim (so the IR, backend and cache stages all
// handle a real, full-sized payload) followed by a literal load of the
// source's byte length. The result is runnable through every in-scope
// stage below it, but is not a real compilation of src's semantics.
func buildCompileResult(src string, srcFilePaths []string, flags ir.CompileFlag) *backend.CompileResult {
	fns := &ir.FunctionList{}
	main := fns.Append(&ir.Function{ToExport: true, LinkingSignature: "main()"})

	if flags.Has(ir.FlagComment) {
		main.Instructions.Append(&ir.Instruction{
			Op:            ir.COMMENT,
			OpaquePayload: src,
		})
	}

	main.Instructions.Append(&ir.Instruction{
		Op:  ir.LI,
		R1:  1,
		Imm: ir.NewLiteral(uint64(len(src))),
	})

	return &backend.CompileResult{
		Functions:        fns,
		StringRegion:     nil,
		GlobalRegionSize: 0,
		SrcFilePaths:     srcFilePaths,
		Flags:            flags,
	}
}
