package xpt

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNamestr(code uint16, length, ordinal int, name, label string, offset int) ([]byte, []byte) {
	primary := make([]byte, namestrPrimarySize)
	rest := make([]byte, NamestrSize-namestrPrimarySize)
	binary.BigEndian.PutUint16(primary[nsTypeOffset:], code)
	binary.BigEndian.PutUint16(primary[nsLengthOffset:], uint16(length))
	binary.BigEndian.PutUint16(primary[nsOrdinalOffset:], uint16(ordinal))
	copy(primary[nsNameOffset:nsNameOffset+nameWidth], padRight(name, nameWidth))
	copy(primary[nsLabelOffset:nsLabelOffset+labelWidth], padRight(label, labelWidth))
	copy(primary[nsFormatOffset:nsFormatOffset+formatWidth], padRight("DATE", formatWidth))
	binary.BigEndian.PutUint16(primary[nsFormatLength:], 9)
	binary.BigEndian.PutUint16(primary[nsJustify:], 1)
	binary.BigEndian.PutUint16(rest[nsInformatLength:], 8)
	binary.BigEndian.PutUint16(rest[nsInformatDecimals:], 2)
	binary.BigEndian.PutUint32(rest[nsPositionOffset:], uint32(offset))
	return primary, rest
}

func padRight(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}

func TestParseNamestr(t *testing.T) {
	t.Run("DecodesAllFields", func(t *testing.T) {
		primary, rest := buildNamestr(1, 8, 3, "AGE", "  Age in years  ", 16)

		v, err := parseNamestr(primary, rest)
		require.NoError(t, err)
		assert.Equal(t, "AGE", v.Name)
		assert.Equal(t, "Age in years", v.Label)
		assert.Equal(t, KindNumeric, v.Kind)
		assert.Equal(t, 8, v.Length)
		assert.Equal(t, 3, v.Ordinal)
		assert.Equal(t, 16, v.Offset)
		assert.Equal(t, Format{Name: "DATE", Width: 9}, v.Format)
		assert.Equal(t, "DATE9.", v.Format.String())
		assert.Equal(t, Format{Width: 8, Decimals: 2}, v.Informat)
		assert.Equal(t, "8.2", v.Informat.String())
		assert.True(t, v.RightJustify)
	})

	t.Run("EmptyLabel", func(t *testing.T) {
		primary, rest := buildNamestr(2, 20, 1, "NAME", "", 0)

		v, err := parseNamestr(primary, rest)
		require.NoError(t, err)
		assert.Equal(t, "", v.Label)
		assert.Equal(t, KindString, v.Kind)
	})

	t.Run("UnknownTypeCode", func(t *testing.T) {
		primary, rest := buildNamestr(7, 8, 1, "X", "", 0)

		_, err := parseNamestr(primary, rest)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
		assert.ErrorIs(t, err, ErrUnknownVariableType)
	})

	t.Run("NumericLengthOutOfRange", func(t *testing.T) {
		for _, length := range []int{1, 9, 200} {
			primary, rest := buildNamestr(1, length, 1, "X", "", 0)
			_, err := parseNamestr(primary, rest)
			assert.ErrorIs(t, err, ErrInvalidDescriptor, "length %d", length)
		}
	})

	t.Run("ZeroLengthString", func(t *testing.T) {
		primary, rest := buildNamestr(2, 0, 1, "S", "", 0)

		_, err := parseNamestr(primary, rest)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})

	t.Run("BlankName", func(t *testing.T) {
		primary, rest := buildNamestr(2, 4, 1, "", "", 0)

		_, err := parseNamestr(primary, rest)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})
}

func TestTrimField(t *testing.T) {
	assert.Equal(t, "AGE", trimField([]byte("AGE     ")))
	assert.Equal(t, "", trimField([]byte("        ")))
	assert.Equal(t, "A B", trimField([]byte("  A B  ")))
	assert.Equal(t, "X", trimField([]byte("X\x00\x00")))
}

func TestDescriptorPadding(t *testing.T) {
	tests := []struct {
		total int64
		want  int
	}{
		{0, 0},
		{140, 20},
		{280, 40},
		{560, 0},
		{136, 24},
		{80, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, descriptorPadding(tt.total), "total %d", tt.total)
	}
}

func TestNewTable(t *testing.T) {
	t.Run("ComputesRecordLength", func(t *testing.T) {
		table, err := newTable([]Variable{
			{Name: "A", Kind: KindNumeric, Length: 8, Offset: 0},
			{Name: "B", Kind: KindString, Length: 12, Offset: 8},
		}, 0)
		require.NoError(t, err)
		assert.Equal(t, 20, table.RecordLength())
		assert.Equal(t, 2, table.Len())

		i, ok := table.Index("B")
		assert.True(t, ok)
		assert.Equal(t, 1, i)
	})

	t.Run("VariablesReturnsCopy", func(t *testing.T) {
		table, err := newTable([]Variable{{Name: "A", Kind: KindNumeric, Length: 8}}, 0)
		require.NoError(t, err)

		vars := table.Variables()
		vars[0].Name = "CHANGED"
		assert.Equal(t, "A", table.At(0).Name)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := newTable([]Variable{
			{Name: "A", Kind: KindNumeric, Length: 8, Offset: 0},
			{Name: "A", Kind: KindNumeric, Length: 8, Offset: 8},
		}, 0)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})

	t.Run("OffsetOutOfBounds", func(t *testing.T) {
		_, err := newTable([]Variable{
			{Name: "A", Kind: KindNumeric, Length: 8, Offset: 4},
		}, 0)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})

	t.Run("RecordLengthLimit", func(t *testing.T) {
		_, err := newTable([]Variable{
			{Name: "A", Kind: KindString, Length: 200, Offset: 0},
		}, 100)
		assert.ErrorIs(t, err, ErrInvalidDescriptor)
	})
}

func TestHeaderFields(t *testing.T) {
	block := make([]byte, BlockSize)
	for i := range block {
		block[i] = ' '
	}

	t.Run("VariableCount", func(t *testing.T) {
		copy(block[countOffset:], "00012")
		n, err := variableCount(block)
		require.NoError(t, err)
		assert.Equal(t, 12, n)
	})

	t.Run("MalformedCount", func(t *testing.T) {
		copy(block[countOffset:], "00x12")
		_, err := variableCount(block)
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("NamestrSizeDefaults", func(t *testing.T) {
		copy(block[namestrSizeOffset:], "     ")
		n, err := namestrSize(block)
		require.NoError(t, err)
		assert.Equal(t, NamestrSize, n)
	})

	t.Run("NamestrSizeVAX", func(t *testing.T) {
		copy(block[namestrSizeOffset:], "00136")
		n, err := namestrSize(block)
		require.NoError(t, err)
		assert.Equal(t, NamestrSizeVAX, n)
	})

	t.Run("NamestrSizeUnsupported", func(t *testing.T) {
		copy(block[namestrSizeOffset:], "00100")
		_, err := namestrSize(block)
		assert.ErrorIs(t, err, ErrMalformedHeader)
	})
}
