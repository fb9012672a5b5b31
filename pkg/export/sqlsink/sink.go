// Package sqlsink writes decoded datasets to SQLite or PostgreSQL.
//
// Each export creates one table named after the dataset, with a column per
// variable (DOUBLE PRECISION for numeric, TEXT for character) plus a row
// number column, and appends an entry to xpt_import_runs.
package sqlsink

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/xptkit/internal/logger"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/xpt"
)

// maxParams keeps a single INSERT under the bind parameter limits of
// SQLite (32766) and PostgreSQL (65535).
const maxParams = 30000

// RowNumberColumn holds the 1-based observation number. It is longer than
// any XPT variable name, so it cannot collide with one.
const RowNumberColumn = "xpt_row_number"

// Sink implements export.Sink on a gorm database.
type Sink struct {
	db      *gorm.DB
	config  *Config
	replace bool
	columns []string
}

// Option configures a Sink.
type Option func(*Sink)

// WithReplace drops an existing destination table instead of failing.
func WithReplace(replace bool) Option {
	return func(s *Sink) { s.replace = replace }
}

// New opens the database described by config and migrates the run table.
func New(config *Config, opts ...Option) (*Sink, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	s := &Sink{db: db, config: config}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB exposes the gorm handle, mainly for tests and run listings.
func (s *Sink) DB() *gorm.DB { return s.db }

// Name returns the database type.
func (s *Sink) Name() string { return string(s.config.Type) }

// Begin creates the destination table and the run record.
func (s *Sink) Begin(ctx context.Context, run *export.Run) error {
	db := s.db.WithContext(ctx)
	migrator := db.Migrator()

	if migrator.HasTable(run.Table) {
		if !s.replace {
			return fmt.Errorf("%w: %s", export.ErrTableExists, run.Table)
		}
		if err := migrator.DropTable(run.Table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", run.Table, err)
		}
		logger.InfoCtx(ctx, "Dropped existing table", logger.KeyTable, run.Table)
	}

	if err := db.Exec(s.createTableSQL(run.Table, run.Variables)).Error; err != nil {
		return fmt.Errorf("failed to create table %s: %w", run.Table, err)
	}

	s.columns = make([]string, len(run.Variables))
	for i, v := range run.Variables {
		s.columns[i] = v.Name
	}

	return db.Create(&ImportRun{
		ID:           run.ID,
		Source:       run.Source,
		Target:       run.Table,
		Variables:    len(run.Variables),
		RecordLength: run.RecordLength,
		Status:       export.StatusRunning,
		StartedAt:    run.StartedAt,
	}).Error
}

func (s *Sink) createTableSQL(table string, vars []xpt.Variable) string {
	quote := s.db.Statement.Quote

	cols := make([]string, 0, len(vars)+1)
	cols = append(cols, quote(RowNumberColumn)+" BIGINT NOT NULL PRIMARY KEY")
	for _, v := range vars {
		typ := "TEXT"
		if v.Kind == xpt.KindNumeric {
			typ = "DOUBLE PRECISION"
		}
		cols = append(cols, quote(v.Name)+" "+typ)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(cols, ", "))
}

// WriteBatch inserts rows, splitting wide batches into several statements.
func (s *Sink) WriteBatch(ctx context.Context, run *export.Run, rows []xpt.Row) error {
	records := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(s.columns)+1)
		rec[RowNumberColumn] = run.Rows + int64(i) + 1
		for j, name := range s.columns {
			rec[name] = columnValue(row.At(j))
		}
		records[i] = rec
	}
	chunk := max(1, maxParams/(len(s.columns)+1))
	return s.db.WithContext(ctx).Table(run.Table).CreateInBatches(&records, chunk).Error
}

// columnValue maps missing and non-finite numbers to NULL.
func columnValue(v xpt.Value) any {
	if !v.IsNumeric() {
		return v.String()
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// End stores the outcome on the run record.
func (s *Sink) End(ctx context.Context, run *export.Run) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	updates := map[string]any{
		"rows":        run.Rows,
		"status":      run.Status(),
		"finished_at": finished,
	}
	if run.Err != nil {
		updates["error"] = run.Err.Error()
	}

	return s.db.WithContext(ctx).Model(&ImportRun{}).Where("id = ?", run.ID).Updates(updates).Error
}

// Runs lists recorded runs, newest first.
func (s *Sink) Runs(ctx context.Context) ([]ImportRun, error) {
	var runs []ImportRun
	err := s.db.WithContext(ctx).Order("started_at DESC").Find(&runs).Error
	return runs, err
}

// Close closes the database.
func (s *Sink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ export.Sink = (*Sink)(nil)
