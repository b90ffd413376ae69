// Package backend defines the frozen interface between the compiler core
// and a pluggable code-generation backend: the shape of the compile
// result a backend consumes, the shape of the executable bytes plus
// tables it produces, and the binary encodings of the debug-info and
// import/export table sections. Concrete machine-code encodings are
// explicitly not this package's concern; TextBackend is a reference
// backend that renders instructions as readable mnemonics instead, in the
// spirit of original_source's lyricalbackendtext.c, sufficient to
// exercise this package's partitioning and encoding logic end to end.
package backend

import "github.com/tambewilliam/lyrical-sub003/pkg/ir"

// CompileResult is the frozen input a backend consumes: everything code
// generation produced for an entire compile.
type CompileResult struct {
	Functions *ir.FunctionList

	// StringRegion holds every string constant used by the program,
	// concatenated; ImmOffsetToStringRegion terms in an instruction's
	// immediate resolve against this region.
	StringRegion []byte

	// GlobalRegionSize is the byte size of the global-variable region.
	// The region itself is allocated by the loader at load time and is
	// never present in a backend's executable bytes.
	GlobalRegionSize uint64

	// SrcFilePaths lists every source file that contributed to this
	// compile, in the order they were first read; pkg/watch uses this to
	// know which files to observe for a re-run.
	SrcFilePaths []string

	Flags ir.CompileFlag
}

// Backend assembles a CompileResult into final executable bytes plus the
// tables needed to use them.
type Backend interface {
	Assemble(result *CompileResult) (*BackendResult, error)
}

// BackendResult is the frozen output of a backend. The executable layout
// is instructions immediately followed by null-terminated constant
// strings; the global region is allocated by the loader at load time and
// is never present in Executable.
type BackendResult struct {
	Executable       []byte
	InstructionsSize uint64
	ConstantsSize    uint64

	ExportTable []ExportEntry
	ImportTable []ImportEntry

	// DebugInfo is nil unless ir.FlagDebugInfo was set on the compile.
	DebugInfo *DebugInfo
}

// ExportEntry names a function made callable at runtime by name (the
// export keyword used on a non-nested function or operator).
type ExportEntry struct {
	// Signature is the function's linking signature (see
	// ir.Function.LinkingSignature), the hash-free identifier export and
	// import tables key on.
	Signature string
	// Offset is the function's offset within BackendResult.Executable.
	Offset uint64
}

// ImportEntry names a function declared but never defined, resolved
// externally at load time.
type ImportEntry struct {
	Signature string
	// Offset is the offset within the string region from which the
	// resolved address is loaded.
	Offset uint64
}
