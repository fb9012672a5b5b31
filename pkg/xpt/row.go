package xpt

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one decoded observation, with one Value per variable in table order.
type Row struct {
	table  *Table
	values []Value
}

// Len returns the number of values.
func (r Row) Len() int { return len(r.values) }

// At returns the i-th value.
func (r Row) At(i int) Value { return r.values[i] }

// Values returns the values in table order. The slice belongs to the row.
func (r Row) Values() []Value { return r.values }

// Get returns the value of the named variable.
func (r Row) Get(name string) (Value, bool) {
	if r.table == nil {
		return Value{}, false
	}
	i, ok := r.table.Index(name)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// Map returns the row keyed by variable name.
func (r Row) Map() map[string]Value {
	m := make(map[string]Value, len(r.values))
	for i, v := range r.values {
		m[r.table.vars[i].Name] = v
	}
	return m
}

// extract decodes variable v from a record buffer using its stored kind.
func (s *Session) extract(rec []byte, v Variable) Value {
	field := rec[v.Offset : v.Offset+v.Length]
	if v.Kind == KindNumeric {
		return NumberValue(decodeNumeric(field, s.opts.missingAsNaN))
	}
	return StringValue(trimField(field))
}

// coerce decodes variable v into the requested kind.
func (s *Session) coerce(rec []byte, v Variable, want Kind) (Value, error) {
	val := s.extract(rec, v)
	if want == v.Kind {
		return val, nil
	}
	switch want {
	case KindNumeric:
		text := strings.TrimSpace(val.str)
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, &CoercionError{Variable: v.Name, Text: val.str, Err: err}
		}
		return NumberValue(f), nil
	case KindString:
		return StringValue(formatNumber(val.num)), nil
	default:
		return Value{}, fmt.Errorf("xpt: cannot coerce %s to %s", v.Name, want)
	}
}

// nextRecord reads one record into a pooled buffer. ok is false at end of
// data. The caller must release the buffer with s.pool.Put.
func (s *Session) nextRecord() (rec []byte, ok bool, err error) {
	if err := s.checkReadable(); err != nil {
		return nil, false, err
	}
	if s.done {
		return nil, false, nil
	}

	n := s.table.recordLength
	if n == 0 {
		s.finish()
		return nil, false, nil
	}
	rec = s.pool.Get(n)
	start := s.br.Offset()
	got, err := s.br.ReadFull(rec)
	if err != nil {
		if !isEndOfStream(err) {
			s.pool.Put(rec)
			s.fail("io")
			return nil, false, err
		}
		// A short read is end of data only at a row boundary or when the
		// leftover is blank padding.
		blank := isBlank(rec[:got])
		s.pool.Put(rec)
		if got == 0 || blank {
			s.finish()
			return nil, false, nil
		}
		s.fail("truncated")
		return nil, false, fmt.Errorf("%w: partial record of %d/%d bytes at offset %d: %w", ErrTruncated, got, n, start, err)
	}

	if s.opts.skipTrailingPadding && s.isPadding(rec) {
		s.pool.Put(rec)
		s.finish()
		return nil, false, nil
	}

	s.rows++
	if s.opts.metrics != nil {
		s.opts.metrics.RecordRow(n)
	}
	return rec, true, nil
}

// isPadding reports whether rec is blank fill of the final block rather than
// an observation. Padding is shorter than one block, so rec and the blank
// tail after it must fit in fewer than BlockSize bytes.
func (s *Session) isPadding(rec []byte) bool {
	if len(rec) >= BlockSize || !isBlank(rec) {
		return false
	}
	tail, ok := s.br.BlankTail()
	return ok && len(rec)+tail < BlockSize
}

// ReadRow decodes the next observation positionally. ok is false, with a
// nil error, once the data is exhausted.
func (s *Session) ReadRow() (Row, bool, error) {
	rec, ok, err := s.nextRecord()
	if !ok || err != nil {
		return Row{}, false, err
	}
	defer s.pool.Put(rec)

	values := make([]Value, len(s.table.vars))
	for i, v := range s.table.vars {
		values[i] = s.extract(rec, v)
	}
	return Row{table: s.table, values: values}, true, nil
}

// ReadRowInto decodes the next observation into len(kinds) values matched
// left to right against the first variables. Remaining variables are read
// and discarded. A character value requested as numeric must parse as a
// decimal number or a *CoercionError is returned.
func (s *Session) ReadRowInto(kinds []Kind) ([]Value, bool, error) {
	if s.table != nil && len(kinds) > len(s.table.vars) {
		return nil, false, fmt.Errorf("%w: %d slots for %d variables", ErrTooManySlots, len(kinds), len(s.table.vars))
	}
	rec, ok, err := s.nextRecord()
	if !ok || err != nil {
		return nil, false, err
	}
	defer s.pool.Put(rec)

	values := make([]Value, len(kinds))
	for i, want := range kinds {
		val, err := s.coerce(rec, s.table.vars[i], want)
		if err != nil {
			s.fail("coercion")
			return nil, false, err
		}
		values[i] = val
	}
	return values, true, nil
}
