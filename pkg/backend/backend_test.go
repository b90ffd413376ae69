package backend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

func TestTextBackendAssembleLayoutAndExports(t *testing.T) {
	var fns ir.FunctionList

	f1 := &ir.Function{LinkingSignature: "main()", ToExport: true}
	f1.Instructions.Append(&ir.Instruction{Op: ir.ADD, R1: 1, R2: 2, R3: 3})
	f1.Instructions.Append(&ir.Instruction{Op: ir.JPOP})
	fns.Append(f1)

	f2 := &ir.Function{LinkingSignature: "helper()"}
	f2.Instructions.Append(&ir.Instruction{Op: ir.JI, Imm: ir.NewOffsetToInstruction(f1.Instructions.Head())})
	f2.Instructions.Append(&ir.Instruction{Op: ir.JPOP})
	fns.Append(f2)

	result := &CompileResult{Functions: &fns, StringRegion: []byte("hi\x00")}

	out, err := TextBackend{}.Assemble(result)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	if len(out.ExportTable) != 1 || out.ExportTable[0].Signature != "main()" {
		t.Fatalf("export table = %+v", out.ExportTable)
	}
	if out.ExportTable[0].Offset != 0 {
		t.Fatalf("main() should be offset 0, got %d", out.ExportTable[0].Offset)
	}

	if out.ConstantsSize != 3 {
		t.Fatalf("constants size = %d, want 3", out.ConstantsSize)
	}
	if out.InstructionsSize+out.ConstantsSize != uint64(len(out.Executable)) {
		t.Fatalf("executable length mismatch: %d instr + %d const != %d total",
			out.InstructionsSize, out.ConstantsSize, len(out.Executable))
	}
	if !strings.HasSuffix(string(out.Executable), "hi\x00") {
		t.Fatal("executable does not end with the string region")
	}

	lines := strings.Split(string(out.Executable[:out.InstructionsSize]), "\n")
	if !strings.Contains(lines[2], "ji") {
		t.Fatalf("third line should render the JI instruction, got %q", lines[2])
	}
	wantImm := fmt.Sprintf("imm=%0*d", immWidth, 0)
	if !strings.Contains(lines[2], wantImm) {
		t.Fatalf("JI should resolve to offset 0 into f1, got %q (want substring %q)", lines[2], wantImm)
	}
}

func TestTextBackendAssembleImportTable(t *testing.T) {
	var fns ir.FunctionList
	f := &ir.Function{LinkingSignature: "ext()", ToImport: 5}
	f.Instructions.Append(&ir.Instruction{Op: ir.JR})
	fns.Append(f)

	out, err := TextBackend{}.Assemble(&CompileResult{Functions: &fns})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(out.ImportTable) != 1 {
		t.Fatalf("import table = %+v", out.ImportTable)
	}
	if out.ImportTable[0].Offset != 4 {
		t.Fatalf("ToImport 5 should decode to offset 4, got %d", out.ImportTable[0].Offset)
	}
}

func TestTextBackendAssembleDebugInfo(t *testing.T) {
	var fns ir.FunctionList
	f := &ir.Function{LinkingSignature: "f()"}
	in1 := f.Instructions.Append(&ir.Instruction{Op: ir.ADD, DebugInfo: ir.DebugInfo{FilePath: "a.ly", LineNumber: 3}})
	f.Instructions.Append(&ir.Instruction{Op: ir.JPOP, DebugInfo: ir.DebugInfo{FilePath: "a.ly", LineNumber: 4}})
	fns.Append(f)

	out, err := TextBackend{}.Assemble(&CompileResult{Functions: &fns, Flags: ir.FlagDebugInfo})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if out.DebugInfo == nil {
		t.Fatal("expected debug info to be built")
	}
	if len(out.DebugInfo.Entries) != 2 {
		t.Fatalf("entries = %+v", out.DebugInfo.Entries)
	}
	if out.DebugInfo.Entries[0].BinOffset != 0 {
		t.Fatalf("first entry bin offset = %d, want 0", out.DebugInfo.Entries[0].BinOffset)
	}
	wantSecondOffset := uint64(len(renderLine(in1, 0)))
	if out.DebugInfo.Entries[1].BinOffset != wantSecondOffset {
		t.Fatalf("second entry bin offset = %d, want %d", out.DebugInfo.Entries[1].BinOffset, wantSecondOffset)
	}

	p, err := out.DebugInfo.Path(out.DebugInfo.Entries[0].PathOffset)
	if err != nil || p != "a.ly" {
		t.Fatalf("path = %q, %v", p, err)
	}
}

func TestExportImportTableEncodeDecodeRoundTrip(t *testing.T) {
	exports := []ExportEntry{{Signature: "main()", Offset: 0}, {Signature: "g()", Offset: 128}}
	enc := EncodeExportTable(exports)
	got, err := DecodeExportTable(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(exports) {
		t.Fatalf("got %d entries, want %d", len(got), len(exports))
	}
	for i := range exports {
		if got[i] != exports[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], exports[i])
		}
	}

	imports := []ImportEntry{{Signature: "ext()", Offset: 16}}
	iEnc := EncodeImportTable(imports)
	iGot, err := DecodeImportTable(iEnc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(iGot) != 1 || iGot[0] != imports[0] {
		t.Fatalf("import got %+v, want %+v", iGot, imports)
	}
}
