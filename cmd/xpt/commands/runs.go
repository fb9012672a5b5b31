package commands

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/marmos91/xptkit/internal/cli/output"
	"github.com/marmos91/xptkit/pkg/export/kvsink"
	"github.com/marmos91/xptkit/pkg/export/sqlsink"
	"github.com/spf13/cobra"
)

var (
	runsFrom   string
	runsPath   string
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded exports",
	Long: `List the export runs recorded by a sink, newest first, including
failed ones.

Examples:
  xpt runs
  xpt runs --from badger -o json`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsFrom, "from", "", "Sink: sqlite, postgres or badger (default: export.database.type)")
	runsCmd.Flags().StringVar(&runsPath, "path", "", "SQLite file or Badger directory (default: from config)")
	runsCmd.Flags().StringVarP(&runsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// runEntry is one row of "xpt runs", common to every sink.
type runEntry struct {
	ID         string     `json:"id" yaml:"id"`
	Source     string     `json:"source" yaml:"source"`
	Target     string     `json:"target" yaml:"target"`
	Rows       int64      `json:"rows" yaml:"rows"`
	Status     string     `json:"status" yaml:"status"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

type runList []runEntry

func (l runList) Headers() []string {
	return []string{"ID", "Source", "Target", "Rows", "Status", "Started", "Finished"}
}

func (l runList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		started := r.StartedAt
		rows = append(rows, []string{
			r.ID,
			r.Source,
			r.Target,
			strconv.FormatInt(r.Rows, 10),
			r.Status,
			formatTime(&started),
			formatTime(r.FinishedAt),
		})
	}
	return rows
}

func runRuns(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(runsOutput)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	name, err := sinkName(a.cfg, runsFrom)
	if err != nil {
		return err
	}

	var list runList
	switch name {
	case sinkBadger:
		list, err = badgerRuns(a, runsPath)
	default:
		list, err = sqlRuns(cmd, a, name, runsPath)
	}
	if err != nil {
		return err
	}

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(list)
}

func badgerRuns(a *app, path string) (runList, error) {
	sink, err := openSink(a.cfg, sinkBadger, path, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sink.Close() }()

	records, err := sink.(*kvsink.Sink).Runs()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	list := make(runList, 0, len(records))
	for _, r := range records {
		finished := r.FinishedAt
		list = append(list, runEntry{
			ID:         r.ID,
			Source:     r.Source,
			Target:     r.Target,
			Rows:       r.Rows,
			Status:     r.Status,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: &finished,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].StartedAt.After(list[j].StartedAt) })
	return list, nil
}

func sqlRuns(cmd *cobra.Command, a *app, name, path string) (runList, error) {
	sink, err := openSink(a.cfg, name, path, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sink.Close() }()

	records, err := sink.(*sqlsink.Sink).Runs(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	list := make(runList, 0, len(records))
	for _, r := range records {
		list = append(list, runEntry{
			ID:         r.ID,
			Source:     r.Source,
			Target:     r.Target,
			Rows:       r.Rows,
			Status:     r.Status,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return list, nil
}
