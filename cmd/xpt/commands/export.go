package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/internal/cli/prompt"
	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/internal/telemetry"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/metrics"
	"github.com/marmos91/xptkit/pkg/source"
	"github.com/spf13/cobra"
)

var (
	exportTo        string
	exportTable     string
	exportPath      string
	exportForce     bool
	exportBatchSize int
	exportLimit     int64
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export a dataset to SQLite, PostgreSQL or Badger",
	Long: `Stream every row of a transport file into a database.

The destination table is named after the file unless --table is given.
SQL sinks create one column per variable (DOUBLE PRECISION or TEXT) plus
xpt_row_number, and record each run in the xpt_import_runs table. The
Badger sink stores rows as JSON under ds:<table>:row:<n>.

An existing table is only replaced with --force or after confirmation.

While the export runs, Prometheus metrics are served on the configured port
when metrics are enabled, and profiles are pushed to Pyroscope when
profiling is enabled.

Examples:
  # Export to the default SQLite database
  xpt export dm.xpt

  # Export from S3 to PostgreSQL
  xpt export s3://submissions/study-01/lb.xpt --to postgres

  # Replace an existing Badger dataset
  xpt export dm.xpt --to badger --path ./kv --force`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Destination: sqlite, postgres or badger (default: export.database.type)")
	exportCmd.Flags().StringVar(&exportTable, "table", "", "Destination table (default: file name)")
	exportCmd.Flags().StringVar(&exportPath, "path", "", "SQLite file or Badger directory (default: from config)")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "Replace an existing table without asking")
	exportCmd.Flags().IntVar(&exportBatchSize, "batch-size", 0, "Rows per write (default: export.batch_size)")
	exportCmd.Flags().Int64Var(&exportLimit, "limit", 0, "Maximum number of rows (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	uri := args[0]
	loc, err := source.Parse(uri)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name, err := sinkName(a.cfg, exportTo)
	if err != nil {
		return err
	}
	table := exportTable
	if table == "" {
		table = export.TableName(loc.Name())
	}
	batchSize := exportBatchSize
	if batchSize == 0 {
		batchSize = a.cfg.Export.BatchSize
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopProfiling, err := telemetry.InitProfiling(a.cfg.ProfilingConfig(Version))
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("profiling shutdown error", logger.Err(err))
		}
	}()

	if a.cfg.Metrics.Enabled {
		serveCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := metrics.Serve(serveCtx, a.cfg.Metrics.Port); err != nil {
				logger.Warn("Metrics server error", logger.Err(err))
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	s, err := a.open(ctx, uri)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	sink, err := openSink(a.cfg, name, exportPath, exportForce)
	if err != nil {
		return err
	}
	opts := export.Options{
		BatchSize: batchSize,
		Limit:     exportLimit,
		Metrics:   metrics.NewExportMetrics(),
	}

	run, err := export.Export(ctx, s, sink, uri, table, opts)
	if errors.Is(err, export.ErrTableExists) && !exportForce {
		_ = sink.Close()

		ok, perr := prompt.ConfirmReplace(fmt.Sprintf("Table %q in %s", table, name), exportForce)
		if perr != nil {
			if errors.Is(perr, prompt.ErrNotInteractive) {
				return fmt.Errorf("%w (use --force to replace it)", err)
			}
			return perr
		}
		if !ok {
			return fmt.Errorf("export cancelled")
		}

		if sink, err = openSink(a.cfg, name, exportPath, true); err != nil {
			return err
		}
		run, err = export.Export(ctx, s, sink, uri, table, opts)
	}
	if closeErr := sink.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("%s: close: %w", name, closeErr)
	}
	if err != nil {
		if run != nil {
			return fmt.Errorf("export %s after %d rows: %w", run.ID, run.Rows, err)
		}
		return err
	}

	p := output.PrinterFor(cmd.OutOrStdout(), output.FormatTable)
	p.Success(fmt.Sprintf("Exported %d rows from %s to %s table %q in %s",
		run.Rows, uri, name, table, run.Duration().Round(1e6)))
	p.Printf("Run ID: %s\n", run.ID)
	return nil
}
