package catalog

import "sort"

const (
	// MaxKeyLength is InnoDB's key length limit in bytes with DYNAMIC rows.
	MaxKeyLength = 3072
	// DefaultLOBSubPart is the prefix given to TEXT and BLOB key parts that
	// declare none, since MySQL rejects unprefixed LOB keys.
	DefaultLOBSubPart = 100
)

// applySubParts fills in default prefixes and caps the key at MaxKeyLength.
// When the string parts together exceed the limit, the longest parts are
// cut down to a common length so the total fits.
func applySubParts(t *Table, idx *Index) {
	if idx.Kind == IndexFulltext || idx.Kind == IndexSpatial {
		for _, ic := range idx.Columns {
			ic.SubPart = 0
		}
		return
	}

	type part struct {
		ic    *IndexColumn
		chars int
		width int
	}
	var parts []part
	total := 0
	for _, ic := range idx.Columns {
		col := t.Column(ic.Name)
		if col == nil {
			continue
		}
		if ic.SubPart == 0 && col.Type.IsLOB() {
			ic.SubPart = DefaultLOBSubPart
		}
		chars, ok := col.Type.CharLength()
		if !ok {
			continue
		}
		if ic.SubPart > 0 && int64(ic.SubPart) < chars {
			chars = int64(ic.SubPart)
		}
		width := 1
		if col.Type.IsString() {
			width = CharsetMaxBytes(col.Charset)
		}
		parts = append(parts, part{ic: ic, chars: int(chars), width: width})
		total += int(chars) * width
	}
	if total <= MaxKeyLength {
		return
	}

	// largest c with sum(min(chars, c) * width) <= MaxKeyLength
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].chars < parts[j].chars })
	budget := MaxKeyLength
	widths := 0
	for _, p := range parts {
		widths += p.width
	}
	limit := 0
	for i, p := range parts {
		if p.chars*widths > budget {
			limit = budget / widths
			for _, q := range parts[i:] {
				q.ic.SubPart = limit
			}
			return
		}
		budget -= p.chars * p.width
		widths -= p.width
	}
}
