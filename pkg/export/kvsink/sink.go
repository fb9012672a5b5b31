// Package kvsink writes decoded datasets to a Badger key-value directory.
//
// Storage model:
//   - ds:{table}:meta           -> JSON(Dataset)
//   - ds:{table}:row:{%016d}    -> JSON object of variable name to value
//   - run:{id}                  -> JSON(RunRecord)
//
// Row keys are zero padded so that a prefix scan returns observations in
// file order.
package kvsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/xpt"
)

const (
	prefixDataset = "ds:"
	prefixRun     = "run:"
)

// Name is the sink name used in logs, metrics and run records.
const Name = "badger"

// Config configures the Badger directory.
type Config struct {
	// Path is the Badger directory. Default: $XDG_DATA_HOME/xpt/badger
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory keeps everything in memory; Path is ignored.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// ApplyDefaults fills in the default path.
func (c *Config) ApplyDefaults(dataDir string) {
	if c.Path == "" && !c.InMemory {
		c.Path = filepath.Join(dataDir, "badger")
	}
}

// Dataset describes an exported table.
type Dataset struct {
	Table        string         `json:"table"`
	RunID        string         `json:"run_id"`
	Source       string         `json:"source"`
	RecordLength int            `json:"record_length"`
	Variables    []xpt.Variable `json:"variables"`
	Rows         int64          `json:"rows"`
}

// RunRecord records one export, successful or not.
type RunRecord struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	Rows       int64     `json:"rows"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sink implements export.Sink on Badger.
type Sink struct {
	db      *badgerdb.DB
	replace bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithReplace drops an existing dataset with the same table name instead of
// failing.
func WithReplace(replace bool) Option {
	return func(s *Sink) { s.replace = replace }
}

// New opens the Badger directory.
func New(cfg Config, opts ...Option) (*Sink, error) {
	var bopts badgerdb.Options
	if cfg.InMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger path is required")
		}
		bopts = badgerdb.DefaultOptions(cfg.Path)
	}
	bopts = bopts.WithLogger(badgerLogger{})

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &Sink{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func datasetPrefix(table string) string { return prefixDataset + table + ":" }
func metaKey(table string) []byte       { return []byte(datasetPrefix(table) + "meta") }
func rowKey(table string, n int64) []byte {
	return []byte(fmt.Sprintf("%srow:%016d", datasetPrefix(table), n))
}

// Name returns "badger".
func (s *Sink) Name() string { return Name }

// Begin checks for an existing dataset and writes the dataset description.
func (s *Sink) Begin(ctx context.Context, run *export.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := s.hasPrefix(datasetPrefix(run.Table))
	if err != nil {
		return err
	}
	if exists {
		if !s.replace {
			return fmt.Errorf("%w: %s", export.ErrTableExists, run.Table)
		}
		if err := s.db.DropPrefix([]byte(datasetPrefix(run.Table))); err != nil {
			return fmt.Errorf("failed to drop dataset %s: %w", run.Table, err)
		}
		logger.InfoCtx(ctx, "Dropped existing dataset", logger.KeyTable, run.Table)
	}

	return s.putJSON(metaKey(run.Table), datasetFor(run))
}

func datasetFor(run *export.Run) Dataset {
	return Dataset{
		Table:        run.Table,
		RunID:        run.ID,
		Source:       run.Source,
		RecordLength: run.RecordLength,
		Variables:    run.Variables,
		Rows:         run.Rows,
	}
}

func (s *Sink) hasPrefix(prefix string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek([]byte(prefix))
		found = it.ValidForPrefix([]byte(prefix))
		return nil
	})
	return found, err
}

func (s *Sink) putJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, data)
	})
}

// WriteBatch writes one key per row through a Badger write batch.
func (s *Sink) WriteBatch(ctx context.Context, run *export.Run, rows []xpt.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i, row := range rows {
		data, err := json.Marshal(row.Map())
		if err != nil {
			return fmt.Errorf("failed to marshal row %d: %w", run.Rows+int64(i)+1, err)
		}
		if err := wb.Set(rowKey(run.Table, run.Rows+int64(i)+1), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// End updates the dataset row count and stores the run record.
func (s *Sink) End(ctx context.Context, run *export.Run) error {
	rec := RunRecord{
		ID:         run.ID,
		Source:     run.Source,
		Target:     run.Table,
		Rows:       run.Rows,
		Status:     run.Status(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.Err != nil {
		rec.Error = run.Err.Error()
	}

	if err := s.putJSON(metaKey(run.Table), datasetFor(run)); err != nil {
		return err
	}
	return s.putJSON([]byte(prefixRun+run.ID), rec)
}

// Dataset returns the description of an exported table.
func (s *Sink) Dataset(table string) (*Dataset, error) {
	var ds Dataset
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(metaKey(table))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ds)
		})
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("dataset %s not found", table)
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// ScanRows calls fn for each stored row of table in file order. Numeric
// missing values come back as nil.
func (s *Sink) ScanRows(table string, fn func(n int64, row map[string]any) error) error {
	prefix := []byte(datasetPrefix(table) + "row:")
	return s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		var n int64
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
			var row map[string]any
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}
			if err := fn(n, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Runs lists the stored run records.
func (s *Sink) Runs() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixRun)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec RunRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			runs = append(runs, rec)
		}
		return nil
	})
	return runs, err
}

// Close closes the Badger directory.
func (s *Sink) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging to the debug log, keeping
// warnings and errors at their level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), logger.KeyOperation, Name)
}

func (badgerLogger) Warningf(format string, args ...any) {
	logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), logger.KeyOperation, Name)
}

func (badgerLogger) Infof(format string, args ...any) {
	logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), logger.KeyOperation, Name)
}

func (badgerLogger) Debugf(format string, args ...any) {
	logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), logger.KeyOperation, Name)
}

var _ export.Sink = (*Sink)(nil)
