package xpt

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Namestr primary record layout (80 bytes, big-endian integers).
const (
	nsTypeOffset     = 0  // ntype: 1 numeric, 2 character
	nsHashOffset     = 2  // nhfun: name hash, always 0
	nsLengthOffset   = 4  // nlng
	nsOrdinalOffset  = 6  // nvar0
	nsNameOffset     = 8  // nname[8]
	nsLabelOffset    = 16 // nlabel[40]
	nsFormatOffset   = 56 // nform[8]
	nsFormatLength   = 64 // nfl
	nsFormatDecimals = 66 // nfd
	nsJustify        = 68 // nfj
	nsInformat       = 72 // niform[8]

	nameWidth   = 8
	labelWidth  = 40
	formatWidth = 8

	namestrPrimarySize = 80
)

// Namestr continuation record layout.
const (
	nsInformatLength   = 0 // nifl
	nsInformatDecimals = 2 // nifd
	nsPositionOffset   = 4 // npos, int32
)

// Numeric variables are stored as IBM doubles truncated to 2..8 bytes.
const (
	minNumericLength = 2
	maxNumericLength = 8
)

// Format is a SAS display or input format attached to a variable.
type Format struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Width    int    `json:"width,omitempty" yaml:"width,omitempty"`
	Decimals int    `json:"decimals,omitempty" yaml:"decimals,omitempty"`
}

// String renders the format the way SAS prints it, e.g. "DATE9." or "8.2".
func (f Format) String() string {
	if f.Name == "" && f.Width == 0 && f.Decimals == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.Name)
	if f.Width > 0 {
		fmt.Fprintf(&sb, "%d", f.Width)
	}
	sb.WriteByte('.')
	if f.Decimals > 0 {
		fmt.Fprintf(&sb, "%d", f.Decimals)
	}
	return sb.String()
}

// Variable describes one column of the dataset.
type Variable struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Length   int    `json:"length" yaml:"length"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal"`
	Offset   int    `json:"offset" yaml:"offset"`
	Format   Format `json:"format" yaml:"format"`
	Informat Format `json:"informat" yaml:"informat"`
	// RightJustify is set when the display format is right justified.
	RightJustify bool `json:"right_justify,omitempty" yaml:"right_justify,omitempty"`
}

// parseNamestr decodes one namestr record pair. rest is the continuation
// record (namestrSize - 80 bytes).
func parseNamestr(primary, rest []byte) (Variable, error) {
	be := binary.BigEndian

	v := Variable{
		Length:  int(be.Uint16(primary[nsLengthOffset:])),
		Ordinal: int(be.Uint16(primary[nsOrdinalOffset:])),
		Name:    trimField(primary[nsNameOffset : nsNameOffset+nameWidth]),
		Label:   trimField(primary[nsLabelOffset : nsLabelOffset+labelWidth]),
		Format: Format{
			Name:     trimField(primary[nsFormatOffset : nsFormatOffset+formatWidth]),
			Width:    int(be.Uint16(primary[nsFormatLength:])),
			Decimals: int(be.Uint16(primary[nsFormatDecimals:])),
		},
		RightJustify: be.Uint16(primary[nsJustify:]) == 1,
		Informat: Format{
			Name:     trimField(primary[nsInformat : nsInformat+formatWidth]),
			Width:    int(be.Uint16(rest[nsInformatLength:])),
			Decimals: int(be.Uint16(rest[nsInformatDecimals:])),
		},
		Offset: int(int32(be.Uint32(rest[nsPositionOffset:]))),
	}

	code := be.Uint16(primary[nsTypeOffset:])
	switch Kind(code) {
	case KindNumeric, KindString:
		v.Kind = Kind(code)
	default:
		return v, fmt.Errorf("%w: %w: variable %q has type code %d", ErrInvalidDescriptor, ErrUnknownVariableType, v.Name, code)
	}

	if v.Name == "" {
		return v, fmt.Errorf("%w: variable %d has an empty name", ErrInvalidDescriptor, v.Ordinal)
	}
	if v.Length < 1 {
		return v, fmt.Errorf("%w: variable %q has length %d", ErrInvalidDescriptor, v.Name, v.Length)
	}
	if v.Kind == KindNumeric && (v.Length < minNumericLength || v.Length > maxNumericLength) {
		return v, fmt.Errorf("%w: numeric variable %q has length %d, want %d..%d",
			ErrInvalidDescriptor, v.Name, v.Length, minNumericLength, maxNumericLength)
	}
	if v.Offset < 0 {
		return v, fmt.Errorf("%w: variable %q has negative offset %d", ErrInvalidDescriptor, v.Name, v.Offset)
	}
	return v, nil
}

// trimField trims a fixed-width, space-padded ASCII field. Trailing NULs
// written by some producers are dropped as well.
func trimField(b []byte) string {
	return strings.Trim(string(b), " \t\r\n\x00")
}

// Table is the immutable, ordered set of variables of a dataset.
type Table struct {
	vars         []Variable
	index        map[string]int
	recordLength int
}

// newTable freezes vars into a Table and checks the layout invariants.
func newTable(vars []Variable, maxRecordLength int) (*Table, error) {
	t := &Table{
		vars:  vars,
		index: make(map[string]int, len(vars)),
	}
	for i, v := range vars {
		if _, dup := t.index[v.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate variable name %q", ErrInvalidDescriptor, v.Name)
		}
		t.index[v.Name] = i
		t.recordLength += v.Length
	}
	if maxRecordLength > 0 && t.recordLength > maxRecordLength {
		return nil, fmt.Errorf("%w: record length %d exceeds limit %d", ErrInvalidDescriptor, t.recordLength, maxRecordLength)
	}
	for _, v := range vars {
		if v.Offset+v.Length > t.recordLength {
			return nil, fmt.Errorf("%w: variable %q spans bytes %d..%d of a %d-byte record",
				ErrInvalidDescriptor, v.Name, v.Offset, v.Offset+v.Length, t.recordLength)
		}
	}
	return t, nil
}

// Len returns the number of variables.
func (t *Table) Len() int { return len(t.vars) }

// RecordLength returns the byte length of one observation.
func (t *Table) RecordLength() int { return t.recordLength }

// Variables returns a copy of the variables in declaration order.
func (t *Table) Variables() []Variable {
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}

// At returns the i-th variable.
func (t *Table) At(i int) Variable { return t.vars[i] }

// Index returns the position of the named variable.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// descriptorPadding is the number of bytes that restore block alignment
// after total bytes of namestr records.
func descriptorPadding(total int64) int {
	return int((BlockSize - total%BlockSize) % BlockSize)
}
