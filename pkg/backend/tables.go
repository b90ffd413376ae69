package backend

import "fmt"

// EncodeExportTable renders entries as a count prefix followed by
// repeating { null-terminated signature; u64 offset }. The count prefix
// is this package's own resolution of an Open Question spec.md leaves
// unstated (how a reader knows where the table ends); debug info's
// section 1 resolves the analogous question with a sentinel entry
// instead, but a sentinel doesn't fit here since 0 is a legal Offset.
func EncodeExportTable(entries []ExportEntry) []byte {
	out := appendU64(nil, uint64(len(entries)))
	for _, e := range entries {
		out = append(out, e.Signature...)
		out = append(out, 0)
		out = appendU64(out, e.Offset)
	}
	return out
}

// DecodeExportTable parses the layout EncodeExportTable produces.
func DecodeExportTable(data []byte) ([]ExportEntry, error) {
	n, r, err := takeU64(data)
	if err != nil {
		return nil, fmt.Errorf("export table: count: %w", err)
	}
	entries := make([]ExportEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		sig, rest, err := takeCString(r)
		if err != nil {
			return nil, fmt.Errorf("export table: entry %d: %w", i, err)
		}
		off, rest, err := takeU64(rest)
		if err != nil {
			return nil, fmt.Errorf("export table: entry %d: %w", i, err)
		}
		entries = append(entries, ExportEntry{Signature: sig, Offset: off})
		r = rest
	}
	return entries, nil
}

// EncodeImportTable mirrors EncodeExportTable; the two tables differ only
// in what Offset means (see ImportEntry), not in their wire shape.
func EncodeImportTable(entries []ImportEntry) []byte {
	out := appendU64(nil, uint64(len(entries)))
	for _, e := range entries {
		out = append(out, e.Signature...)
		out = append(out, 0)
		out = appendU64(out, e.Offset)
	}
	return out
}

// DecodeImportTable parses the layout EncodeImportTable produces.
func DecodeImportTable(data []byte) ([]ImportEntry, error) {
	n, r, err := takeU64(data)
	if err != nil {
		return nil, fmt.Errorf("import table: count: %w", err)
	}
	entries := make([]ImportEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		sig, rest, err := takeCString(r)
		if err != nil {
			return nil, fmt.Errorf("import table: entry %d: %w", i, err)
		}
		off, rest, err := takeU64(rest)
		if err != nil {
			return nil, fmt.Errorf("import table: entry %d: %w", i, err)
		}
		entries = append(entries, ImportEntry{Signature: sig, Offset: off})
		r = rest
	}
	return entries, nil
}

func takeCString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, fmt.Errorf("unterminated string")
}
