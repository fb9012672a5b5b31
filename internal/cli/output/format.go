// Package output renders command results as tables, JSON, NDJSON or YAML.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marmos91/xptkit/internal/logger"
)

// Format is an output format selected with -o.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	// FormatNDJSON writes one JSON document per line. Only row streams
	// support it; other data is written as a single compact line.
	FormatNDJSON Format = "ndjson"
)

// ParseFormat parses the -o flag. An empty value selects a table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	default:
		return "", fmt.Errorf("invalid output format: %q (valid: table, json, ndjson, yaml)", s)
	}
}

func (f Format) String() string {
	return string(f)
}

const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// Printer writes command results in one format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer. color enables ANSI colors on status lines.
func NewPrinter(out io.Writer, format Format, color bool) *Printer {
	return &Printer{
		out:    out,
		format: format,
		color:  color,
	}
}

// PrinterFor creates a Printer with color enabled only when out is a terminal.
func PrinterFor(out io.Writer, format Format) *Printer {
	f, ok := out.(*os.File)
	return NewPrinter(out, format, ok && logger.IsTerminal(f))
}

// Print writes data in the printer's format. Table output needs a
// TableRenderer; anything else is written as JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatNDJSON:
		return PrintJSONCompact(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// Rows returns a RowWriter streaming dataset rows in the printer's format.
func (p *Printer) Rows(columns []string) RowWriter {
	return NewRowWriter(p.out, p.format, columns)
}

// Printf writes a formatted message.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Success writes msg in green.
func (p *Printer) Success(msg string) {
	p.status(ansiGreen, msg)
}

// Warning writes msg in yellow.
func (p *Printer) Warning(msg string) {
	p.status(ansiYellow, msg)
}

func (p *Printer) status(color, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s%s\n", color, msg, ansiReset)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
