// Package xpttest builds SAS transport files in memory for tests.
//
// A Builder collects variables and rows and renders a complete file: the
// library, member, descriptor, namestr and observation headers, the namestr
// records with their alignment padding, and the blank-padded data region.
// Individual pieces can be broken on purpose to exercise error paths.
//
//	data := xpttest.New().
//		Numeric("AGE", "Age in years").
//		String("NAME", "", 8).
//		Row(42.0, "ALICE").
//		Bytes()
package xpttest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/marmos91/xptkit/pkg/xpt"
)

// Missing is a SAS missing value code ('.', '_' or 'A'..'Z') for use in Row.
type Missing byte

// Var describes one variable of the fixture.
type Var struct {
	Name     string
	Label    string
	Kind     xpt.Kind
	Length   int
	Format   string
	Informat string
}

// Builder assembles a transport file. The zero value is not usable; call New.
type Builder struct {
	vars        []Var
	rows        [][]any
	namestrSize int
	padData     bool
	signatures  map[xpt.Stage]string
	typeCodes   map[string]uint16
	offsets     map[string]int
	memberNum6  string
	countField  string
}

// New returns a Builder for a standard 140-byte namestr file.
func New() *Builder {
	return &Builder{
		namestrSize: xpt.NamestrSize,
		padData:     true,
		signatures:  map[xpt.Stage]string{},
		typeCodes:   map[string]uint16{},
		offsets:     map[string]int{},
	}
}

// Numeric adds an 8-byte numeric variable.
func (b *Builder) Numeric(name, label string) *Builder {
	return b.Var(Var{Name: name, Label: label, Kind: xpt.KindNumeric, Length: 8})
}

// NumericLen adds a numeric variable stored in length bytes.
func (b *Builder) NumericLen(name string, length int) *Builder {
	return b.Var(Var{Name: name, Kind: xpt.KindNumeric, Length: length})
}

// String adds a character variable of the given width.
func (b *Builder) String(name, label string, length int) *Builder {
	return b.Var(Var{Name: name, Label: label, Kind: xpt.KindString, Length: length})
}

// Var adds a fully specified variable.
func (b *Builder) Var(v Var) *Builder {
	b.vars = append(b.vars, v)
	return b
}

// Row adds an observation. Values are float64, int, string, Missing or nil
// (standard missing) in variable order.
func (b *Builder) Row(values ...any) *Builder {
	b.rows = append(b.rows, values)
	return b
}

// NamestrSize sets the namestr record size written to the member header
// and used for every namestr record (140 or 136).
func (b *Builder) NamestrSize(n int) *Builder {
	b.namestrSize = n
	return b
}

// NoPadding leaves the data region unpadded.
func (b *Builder) NoPadding() *Builder {
	b.padData = false
	return b
}

// Signature replaces the signature text written for stage.
func (b *Builder) Signature(stage xpt.Stage, text string) *Builder {
	b.signatures[stage] = text
	return b
}

// TypeCode overrides the namestr type code of the named variable.
func (b *Builder) TypeCode(name string, code uint16) *Builder {
	b.typeCodes[name] = code
	return b
}

// Offset overrides the row offset recorded for the named variable.
func (b *Builder) Offset(name string, offset int) *Builder {
	b.offsets[name] = offset
	return b
}

// CountField overrides the 5-character variable count of the namestr header.
func (b *Builder) CountField(s string) *Builder {
	b.countField = s
	return b
}

// MemberSizeField overrides the 5-character namestr size of the member header.
func (b *Builder) MemberSizeField(s string) *Builder {
	b.memberNum6 = s
	return b
}

// RecordLength returns the sum of the variable lengths.
func (b *Builder) RecordLength() int {
	n := 0
	for _, v := range b.vars {
		n += v.Length
	}
	return n
}

// DataOffset returns the byte offset of the first observation.
func (b *Builder) DataOffset() int64 {
	ns := len(b.vars) * b.namestrSize
	ns += (xpt.BlockSize - ns%xpt.BlockSize) % xpt.BlockSize
	// library + 2 records, member, descriptor + 2 records, namestr, obs
	return int64(9*xpt.BlockSize + ns)
}

// Bytes renders the file.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	b.writeHeaders(&buf)
	b.writeData(&buf)
	return buf.Bytes()
}

// Reader returns the rendered file as a reader.
func (b *Builder) Reader() *bytes.Reader {
	return bytes.NewReader(b.Bytes())
}

// Headers renders only the header region, ending after the observation header.
func (b *Builder) Headers() []byte {
	var buf bytes.Buffer
	b.writeHeaders(&buf)
	return buf.Bytes()
}

func (b *Builder) signature(stage xpt.Stage) string {
	if s, ok := b.signatures[stage]; ok {
		return s
	}
	return xpt.Signature(stage)
}

func (b *Builder) writeHeaders(buf *bytes.Buffer) {
	zeros := "000000000000000000000000000000"

	buf.Write(HeaderBlock(b.signature(xpt.StageLibrary), zeros))
	buf.Write(textBlock("SAS     SAS     SASLIB  9.4     X64_10PR                        01JAN24:10:00:00"))
	buf.Write(textBlock("01JAN24:10:00:00"))

	num6 := b.memberNum6
	if num6 == "" {
		num6 = fmt.Sprintf("%05d", b.namestrSize)
	}
	buf.Write(HeaderBlock(b.signature(xpt.StageMember), "0000000000000000016000000"+num6))
	buf.Write(HeaderBlock(b.signature(xpt.StageDescriptor), zeros))
	buf.Write(textBlock("SAS     FIXTURE SASDATA 9.4     X64_10PR                        01JAN24:10:00:00"))
	buf.Write(textBlock("01JAN24:10:00:00                Fixture dataset"))

	count := b.countField
	if count == "" {
		count = fmt.Sprintf("%05d", len(b.vars))
	}
	buf.Write(HeaderBlock(b.signature(xpt.StageNamestr), "00000"+count+"00000000000000000000"))

	offset := 0
	written := 0
	for i, v := range b.vars {
		pos := offset
		if o, ok := b.offsets[v.Name]; ok {
			pos = o
		}
		code := uint16(v.Kind)
		if c, ok := b.typeCodes[v.Name]; ok {
			code = c
		}
		buf.Write(namestr(v, code, i+1, pos, b.namestrSize))
		written += b.namestrSize
		offset += v.Length
	}
	if pad := (xpt.BlockSize - written%xpt.BlockSize) % xpt.BlockSize; pad > 0 {
		buf.Write(make([]byte, pad))
	}

	buf.Write(HeaderBlock(b.signature(xpt.StageObservation), zeros))
}

func (b *Builder) writeData(buf *bytes.Buffer) {
	written := 0
	for _, row := range b.rows {
		for i, v := range b.vars {
			var val any
			if i < len(row) {
				val = row[i]
			}
			buf.Write(EncodeField(v, val))
			written += v.Length
		}
	}
	if b.padData {
		if pad := (xpt.BlockSize - written%xpt.BlockSize) % xpt.BlockSize; pad > 0 {
			buf.Write(bytes.Repeat([]byte{' '}, pad))
		}
	}
}

// EncodeField renders one value in the storage layout of v.
func EncodeField(v Var, val any) []byte {
	field := make([]byte, v.Length)
	if v.Kind == xpt.KindString {
		copy(field, pad(fmt.Sprint(valueOrEmpty(val)), v.Length))
		return field
	}

	switch x := val.(type) {
	case nil:
		field[0] = '.'
	case Missing:
		field[0] = byte(x)
	default:
		var raw [8]byte
		binary.BigEndian.PutUint64(raw[:], IEEEToIBM(toFloat(x)))
		copy(field, raw[:])
	}
	return field
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		panic(fmt.Sprintf("xpttest: unsupported numeric value %T", v))
	}
}

// HeaderBlock renders an 80-byte header record carrying signature and a
// 30-character numeric field.
func HeaderBlock(signature, digits string) []byte {
	block := bytes.Repeat([]byte{' '}, xpt.BlockSize)
	copy(block, "HEADER RECORD*******")
	copy(block[20:41], pad(signature, 21))
	copy(block[41:48], "!!!!!!!")
	copy(block[48:78], digits)
	return block
}

func textBlock(s string) []byte {
	return []byte(pad(s, xpt.BlockSize))
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + string(bytes.Repeat([]byte{' '}, n-len(s)))
}

func namestr(v Var, code uint16, ordinal, offset, size int) []byte {
	rec := make([]byte, size)
	be := binary.BigEndian
	be.PutUint16(rec[0:], code)
	be.PutUint16(rec[4:], uint16(v.Length))
	be.PutUint16(rec[6:], uint16(ordinal))
	copy(rec[8:16], pad(v.Name, 8))
	copy(rec[16:56], pad(v.Label, 40))
	copy(rec[56:64], pad(v.Format, 8))
	copy(rec[72:80], pad(v.Informat, 8))
	be.PutUint32(rec[84:], uint32(int32(offset)))
	return rec
}

// IEEEToIBM encodes f as a big-endian IBM hexadecimal double. Values outside
// the IBM exponent range and subnormals are not supported.
func IEEEToIBM(f float64) uint64 {
	if f == 0 {
		return 0
	}
	bits := math.Float64bits(f)
	sign := bits & (1 << 63)
	exp := int((bits>>52)&0x7ff) - 1023
	mant := bits&(1<<52-1) | 1<<52

	// f = mant/2^53 * 2^e with e a multiple of four after shifting by s.
	e := exp + 1
	k := (e + 3) >> 2
	s := 4*k - e
	mant <<= uint(3 - s)

	return sign | uint64(k+64)<<56 | mant
}
