package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	// Headers returns the column headers for the table.
	Headers() []string
	// Rows returns the data rows for the table.
	Rows() [][]string
}

// Alignment is the horizontal alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableLayout is optionally implemented by a TableRenderer to control how
// its columns are laid out.
type TableLayout interface {
	// Alignments returns one alignment per column. Missing entries are left aligned.
	Alignments() []Alignment
	// VerbatimHeaders reports whether headers are printed as given. Otherwise
	// they are upper-cased and underscores become spaces.
	VerbatimHeaders() bool
}

// PrintTable writes data as a formatted table to the writer.
func PrintTable(w io.Writer, data TableRenderer) error {
	headers := data.Headers()
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	if layout, ok := data.(TableLayout); ok {
		table.SetAutoFormatHeaders(!layout.VerbatimHeaders())
		if aligns := layout.Alignments(); len(aligns) > 0 {
			table.SetColumnAlignment(columnAlignment(aligns, len(headers)))
		}
	}

	for _, row := range data.Rows() {
		table.Append(row)
	}

	table.Render()
	return nil
}

func columnAlignment(aligns []Alignment, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = tablewriter.ALIGN_LEFT
		if i < len(aligns) && aligns[i] == AlignRight {
			out[i] = tablewriter.ALIGN_RIGHT
		}
	}
	return out
}

// TableData is a simple implementation of TableRenderer for ad-hoc tables.
type TableData struct {
	headers  []string
	rows     [][]string
	aligns   []Alignment
	verbatim bool
}

// NewTableData creates a new TableData with the given headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{
		headers: headers,
		rows:    make([][]string, 0),
		aligns:  make([]Alignment, len(headers)),
	}
}

// AddRow adds a row to the table.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// SetAlignment sets the alignment of column col. Out of range columns are ignored.
func (t *TableData) SetAlignment(col int, a Alignment) {
	if col >= 0 && col < len(t.aligns) {
		t.aligns[col] = a
	}
}

// SetVerbatimHeaders keeps header text unchanged, for headers that are
// data such as variable names.
func (t *TableData) SetVerbatimHeaders(v bool) {
	t.verbatim = v
}

// Headers implements TableRenderer.
func (t *TableData) Headers() []string {
	return t.headers
}

// Rows implements TableRenderer.
func (t *TableData) Rows() [][]string {
	return t.rows
}

// Alignments implements TableLayout.
func (t *TableData) Alignments() []Alignment {
	return t.aligns
}

// VerbatimHeaders implements TableLayout.
func (t *TableData) VerbatimHeaders() bool {
	return t.verbatim
}
