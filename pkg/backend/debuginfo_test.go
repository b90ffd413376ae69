package backend

import (
	"bytes"
	"testing"
)

func TestDebugInfoEncodeDecodeRoundTrip(t *testing.T) {
	d := &DebugInfo{
		Entries: []DebugEntry{
			{BinOffset: 0, PathOffset: 0, Line: 1, LineOffset: 0},
			{BinOffset: 40, PathOffset: 0, Line: 2, LineOffset: 4},
			{BinOffset: 80, PathOffset: 8, Line: 1, LineOffset: 0},
		},
		Paths: append(append([]byte("a.ly\x00"), "b.ly\x00"...)),
	}

	enc := d.Encode()
	got, err := DecodeDebugInfo(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entries) != len(d.Entries) {
		t.Fatalf("got %d entries, want %d", len(got.Entries), len(d.Entries))
	}
	for i, e := range d.Entries {
		if got.Entries[i] != e {
			t.Fatalf("entry %d = %+v, want %+v", i, got.Entries[i], e)
		}
	}
	if !bytes.Equal(got.Paths, d.Paths) {
		t.Fatalf("paths = %q, want %q", got.Paths, d.Paths)
	}
}

func TestDebugInfoEncodeAddsSentinel(t *testing.T) {
	d := &DebugInfo{Entries: []DebugEntry{{BinOffset: 0, Line: 1}}}
	enc := d.Encode()

	sec1Len, rest, err := takeU64(enc)
	if err != nil {
		t.Fatal(err)
	}
	// One real entry plus the sentinel, 4 words each.
	if sec1Len != 2*4*wordSize {
		t.Fatalf("section 1 length = %d, want %d", sec1Len, 2*4*wordSize)
	}
	if uint64(len(rest)) < sec1Len {
		t.Fatalf("encoded section 1 shorter than declared length")
	}
}

func TestDebugInfoLookupBacksUpToOriginatingEntry(t *testing.T) {
	d := &DebugInfo{
		Entries: []DebugEntry{
			{BinOffset: 0, Line: 10},
			{BinOffset: 40, Line: 11},
			{BinOffset: 80, Line: 12},
		},
	}

	cases := []struct {
		query    uint64
		wantLine uint64
		wantOK   bool
	}{
		{0, 10, true},
		{20, 10, true},
		{40, 11, true},
		{79, 11, true},
		{80, 12, true},
		{1000, 12, true},
	}
	for _, c := range cases {
		e, ok := d.Lookup(c.query)
		if ok != c.wantOK {
			t.Fatalf("Lookup(%d) ok = %v, want %v", c.query, ok, c.wantOK)
		}
		if ok && e.Line != c.wantLine {
			t.Fatalf("Lookup(%d).Line = %d, want %d", c.query, e.Line, c.wantLine)
		}
	}
}

func TestDebugInfoLookupBeforeFirstEntryFails(t *testing.T) {
	d := &DebugInfo{Entries: []DebugEntry{{BinOffset: 40, Line: 1}}}
	if _, ok := d.Lookup(10); ok {
		t.Fatal("query before the first entry's bin offset should not resolve")
	}
}

func TestDebugInfoPathExtractsNullTerminatedString(t *testing.T) {
	d := &DebugInfo{Paths: []byte("one.ly\x00two.ly\x00")}
	p, err := d.Path(0)
	if err != nil || p != "one.ly" {
		t.Fatalf("Path(0) = %q, %v", p, err)
	}
	p, err = d.Path(7)
	if err != nil || p != "two.ly" {
		t.Fatalf("Path(7) = %q, %v", p, err)
	}
}
