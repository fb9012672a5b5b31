package commands

import (
	"fmt"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/spf13/cobra"
)

var (
	dumpLimit  int64
	dumpAs     string
	dumpOutput string
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print the rows of a dataset",
	Long: `Print the observations of a transport file.

Numeric values are converted from IBM to IEEE doubles; missing values are
shown as "." in tables and null in JSON and YAML.

--as decodes the leading variables into the given types, e.g. "s,d" reads
the first variable as a string and the second as a number. Character values
read as numbers must hold a decimal number.

Examples:
  # First 10 rows as a table
  xpt dump dm.xpt --limit 10

  # Stream every row as NDJSON
  xpt dump s3://submissions/study-01/lb.xpt -o ndjson

  # Read from stdin, first two variables as string and number
  cat dm.xpt | xpt dump - --as s,d`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Int64Var(&dumpLimit, "limit", 0, "Maximum number of rows (0 = all)")
	dumpCmd.Flags().StringVar(&dumpAs, "as", "", "Comma separated types for the leading variables (d|s)")
	dumpCmd.Flags().StringVarP(&dumpOutput, "output", "o", "table", "Output format (table|json|ndjson|yaml)")
}

func runDump(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(dumpOutput)
	if err != nil {
		return err
	}
	kinds, err := xpt.ParseKinds(dumpAs)
	if err != nil {
		return fmt.Errorf("--as: %w", err)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, span := telemetry.StartDecodeSpan(cmd.Context(), telemetry.SpanDump, args[0])
	defer span.End()

	s, err := a.open(ctx, args[0])
	if err != nil {
		telemetry.RecordError(ctx, err)
		return err
	}
	defer func() { _ = s.Close() }()

	vars := s.Variables()
	if kinds != nil && len(kinds) > len(vars) {
		return fmt.Errorf("--as: %w: %d types for %d variables", xpt.ErrTooManySlots, len(kinds), len(vars))
	}
	columns := make([]string, 0, len(vars))
	for _, v := range vars {
		columns = append(columns, v.Name)
	}
	if kinds != nil {
		columns = columns[:len(kinds)]
	}

	rw := output.PrinterFor(cmd.OutOrStdout(), format).Rows(columns)
	n, err := dumpRows(s, kinds, dumpLimit, rw)
	if closeErr := rw.Close(); err == nil {
		err = closeErr
	}
	telemetry.SetAttributes(ctx, telemetry.Rows(n))
	if err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("row %d: %w", n+1, err)
	}

	logger.DebugCtx(ctx, "Dump finished", logger.KeySessionID, s.ID(), logger.KeyRows, n)
	return nil
}

// dumpRows copies up to limit rows (all when limit is 0) to rw and returns
// how many were written.
func dumpRows(s *xpt.Session, kinds []xpt.Kind, limit int64, rw output.RowWriter) (int64, error) {
	var n int64
	for limit <= 0 || n < limit {
		var (
			values []xpt.Value
			ok     bool
			err    error
		)
		if kinds != nil {
			values, ok, err = s.ReadRowInto(kinds)
		} else {
			var row xpt.Row
			row, ok, err = s.ReadRow()
			values = row.Values()
		}
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}

		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v.Interface()
		}
		if err := rw.WriteRow(cells); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
