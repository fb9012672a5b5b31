package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MissingText is how table output shows a missing numeric value.
const MissingText = "."

// RowWriter streams dataset rows in one output format. Values are nil,
// float64 or string. Close must be called to emit buffered output.
type RowWriter interface {
	WriteRow(values []any) error
	Close() error
}

// NewRowWriter returns a RowWriter for format. Table and YAML output are
// buffered until Close; JSON and NDJSON are streamed.
func NewRowWriter(w io.Writer, format Format, columns []string) RowWriter {
	switch format {
	case FormatJSON:
		return &jsonRows{w: w, columns: columns}
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return &ndjsonRows{enc: enc, columns: columns}
	case FormatYAML:
		return &yamlRows{w: w, columns: columns, seq: &yaml.Node{Kind: yaml.SequenceNode}}
	default:
		data := NewTableData(columns...)
		data.SetVerbatimHeaders(true)
		return &tableRows{w: w, data: data}
	}
}

// record is a row that marshals with its keys in column order.
type record struct {
	columns []string
	values  []any
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := appendJSON(&buf, col); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := appendJSON(&buf, jsonValue(r.value(i))); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// appendJSON encodes v onto buf without HTML escaping or a trailing newline.
func appendJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (r record) value(i int) any {
	if i < len(r.values) {
		return r.values[i]
	}
	return nil
}

// jsonValue maps NaN and infinities to null, which JSON cannot represent.
func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// FormatCell renders one value for table output.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return MissingText
	case float64:
		if math.IsNaN(x) {
			return MissingText
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

type tableRows struct {
	w    io.Writer
	data *TableData
}

func (t *tableRows) WriteRow(values []any) error {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = FormatCell(v)
		if _, ok := v.(float64); ok {
			t.data.SetAlignment(i, AlignRight)
		}
	}
	t.data.AddRow(cells...)
	return nil
}

func (t *tableRows) Close() error {
	return PrintTable(t.w, t.data)
}

type jsonRows struct {
	w       io.Writer
	columns []string
	n       int
}

func (j *jsonRows) WriteRow(values []any) error {
	data, err := record{columns: j.columns, values: values}.MarshalJSON()
	if err != nil {
		return err
	}
	sep := ",\n  "
	if j.n == 0 {
		sep = "[\n  "
	}
	j.n++
	if _, err := io.WriteString(j.w, sep); err != nil {
		return err
	}
	_, err = j.w.Write(data)
	return err
}

func (j *jsonRows) Close() error {
	if j.n == 0 {
		_, err := io.WriteString(j.w, "[]\n")
		return err
	}
	_, err := io.WriteString(j.w, "\n]\n")
	return err
}

type ndjsonRows struct {
	enc     *json.Encoder
	columns []string
}

func (n *ndjsonRows) WriteRow(values []any) error {
	return n.enc.Encode(record{columns: n.columns, values: values})
}

func (n *ndjsonRows) Close() error { return nil }

type yamlRows struct {
	w       io.Writer
	columns []string
	seq     *yaml.Node
}

func (y *yamlRows) WriteRow(values []any) error {
	m := &yaml.Node{Kind: yaml.MappingNode}
	r := record{columns: y.columns, values: values}
	for i, col := range y.columns {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col}
		m.Content = append(m.Content, key, yamlScalar(r.value(i)))
	}
	y.seq.Content = append(y.seq.Content, m)
	return nil
}

func (y *yamlRows) Close() error {
	return PrintYAML(y.w, y.seq)
}

func yamlScalar(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case float64:
		if math.IsNaN(x) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(x, 'g', -1, 64)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: FormatCell(x)}
	}
}
