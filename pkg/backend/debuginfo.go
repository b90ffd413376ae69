package backend

import (
	"encoding/binary"
	"fmt"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
)

// wordSize is the width of every integer field in the debug-info binary
// layout. Lyrical targets 64-bit machines throughout (its load/store
// opcode family tops out at 64-bit words), so debug info uses the same
// width rather than inventing a narrower one.
const wordSize = 8

// DebugEntry is one instruction's originating source position. The
// sentinel entry terminating the on-disk table (Line == 0) is never
// present in DebugInfo.Entries; Encode adds it back, Decode strips it.
type DebugEntry struct {
	BinOffset  uint64
	PathOffset uint64 // offset into DebugInfo.Paths where the path string starts
	Line       uint64
	LineOffset uint64
}

// DebugInfo is the binary debug-info layout: a repeating table of
// per-instruction tuples (section 1) terminated by a sentinel entry whose
// Line is 0, followed by a pool of null-terminated source paths (section
// 2) that section 1's PathOffset indexes into.
type DebugInfo struct {
	Entries []DebugEntry
	Paths   []byte
}

// BuildDebugInfo walks fns in order and records one DebugEntry for every
// instruction, copying its DebugInfo.BinOffset as it currently stands,
// pooling each distinct source path exactly once.
func BuildDebugInfo(fns *ir.FunctionList) *DebugInfo {
	d := &DebugInfo{}
	pathOffsets := map[string]uint64{}

	fns.Walk(func(fn *ir.Function) bool {
		fn.Instructions.Walk(func(in *ir.Instruction) bool {
			path := in.DebugInfo.FilePath
			off, ok := pathOffsets[path]
			if !ok {
				off = uint64(len(d.Paths))
				pathOffsets[path] = off
				d.Paths = append(d.Paths, []byte(path)...)
				d.Paths = append(d.Paths, 0)
			}
			d.Entries = append(d.Entries, DebugEntry{
				BinOffset:  uint64(in.DebugInfo.BinOffset),
				PathOffset: off,
				Line:       uint64(in.DebugInfo.LineNumber),
				LineOffset: uint64(in.DebugInfo.LineOffset),
			})
			return true
		})
		return true
	})
	return d
}

// Encode renders d to its on-disk layout:
//
//	u64 total-bytes-of-section-1
//	section-1: repeating { u64 bin-offset; u64 path-offset; u64 line; u64 line-offset }
//	           terminated by an entry whose line is 0
//	u64 total-bytes-of-section-2
//	section-2: the null-terminated path pool
func (d *DebugInfo) Encode() []byte {
	sec1 := make([]byte, 0, (len(d.Entries)+1)*4*wordSize)
	for _, e := range d.Entries {
		sec1 = appendU64(sec1, e.BinOffset)
		sec1 = appendU64(sec1, e.PathOffset)
		sec1 = appendU64(sec1, e.Line)
		sec1 = appendU64(sec1, e.LineOffset)
	}
	// Sentinel entry: line 0 terminates the table.
	sec1 = appendU64(sec1, 0)
	sec1 = appendU64(sec1, 0)
	sec1 = appendU64(sec1, 0)
	sec1 = appendU64(sec1, 0)

	out := make([]byte, 0, wordSize+len(sec1)+wordSize+len(d.Paths))
	out = appendU64(out, uint64(len(sec1)))
	out = append(out, sec1...)
	out = appendU64(out, uint64(len(d.Paths)))
	out = append(out, d.Paths...)
	return out
}

// DecodeDebugInfo parses the layout Encode produces.
func DecodeDebugInfo(data []byte) (*DebugInfo, error) {
	r := data

	sec1Len, r, err := takeU64(r)
	if err != nil {
		return nil, fmt.Errorf("debug info: section 1 length: %w", err)
	}
	if uint64(len(r)) < sec1Len {
		return nil, fmt.Errorf("debug info: section 1 truncated: want %d bytes, have %d", sec1Len, len(r))
	}
	sec1, r := r[:sec1Len], r[sec1Len:]

	const tupleSize = 4 * wordSize
	if sec1Len%tupleSize != 0 {
		return nil, fmt.Errorf("debug info: section 1 length %d not a multiple of %d", sec1Len, tupleSize)
	}

	d := &DebugInfo{}
	for len(sec1) > 0 {
		var e DebugEntry
		e.BinOffset, sec1, _ = takeU64(sec1)
		e.PathOffset, sec1, _ = takeU64(sec1)
		e.Line, sec1, _ = takeU64(sec1)
		e.LineOffset, sec1, _ = takeU64(sec1)
		if e.Line == 0 {
			break // sentinel; section 1 is fully consumed by construction
		}
		d.Entries = append(d.Entries, e)
	}

	sec2Len, r, err := takeU64(r)
	if err != nil {
		return nil, fmt.Errorf("debug info: section 2 length: %w", err)
	}
	if uint64(len(r)) < sec2Len {
		return nil, fmt.Errorf("debug info: section 2 truncated: want %d bytes, have %d", sec2Len, len(r))
	}
	d.Paths = append([]byte(nil), r[:sec2Len]...)

	return d, nil
}

// Lookup finds the source position that generated the instruction at
// binOffset: the first entry whose BinOffset exceeds binOffset is
// located, then backed up one, since an instruction's debug entry
// describes every binary byte from its own BinOffset up to the next
// entry's.
func (d *DebugInfo) Lookup(binOffset uint64) (DebugEntry, bool) {
	if len(d.Entries) == 0 || binOffset < d.Entries[0].BinOffset {
		return DebugEntry{}, false
	}
	i := 0
	for i < len(d.Entries) && d.Entries[i].BinOffset <= binOffset {
		i++
	}
	return d.Entries[i-1], true
}

// Path returns the null-terminated path string starting at off.
func (d *DebugInfo) Path(off uint64) (string, error) {
	if off > uint64(len(d.Paths)) {
		return "", fmt.Errorf("debug info: path offset %d out of range", off)
	}
	end := off
	for end < uint64(len(d.Paths)) && d.Paths[end] != 0 {
		end++
	}
	if end == uint64(len(d.Paths)) {
		return "", fmt.Errorf("debug info: path at offset %d is not null-terminated", off)
	}
	return string(d.Paths[off:end]), nil
}

func appendU64(b []byte, v uint64) []byte {
	var buf [wordSize]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(b, buf[:]...)
}

func takeU64(b []byte) (uint64, []byte, error) {
	if len(b) < wordSize {
		return 0, b, fmt.Errorf("unexpected end of input reading a %d-byte word", wordSize)
	}
	return binary.LittleEndian.Uint64(b[:wordSize]), b[wordSize:], nil
}
