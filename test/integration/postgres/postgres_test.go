//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/export/sqlsink"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/marmos91/xptkit/pkg/xpt/xpttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a disposable server and returns the sink configuration
// pointing at it.
func startPostgres(t *testing.T) *sqlsink.Config {
	t.Helper()
	ctx := context.Background()

	// The server logs "ready to accept connections" once during bootstrap
	// and once when it is really up.
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("xpt_test"),
		postgres.WithUsername("xpt_test"),
		postgres.WithPassword("xpt_test"),
		testcontainers.WithWaitStrategyAndDeadline(3*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &sqlsink.Config{
		Type: sqlsink.DatabaseTypePostgres,
		Postgres: sqlsink.PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "xpt_test",
			User:     "xpt_test",
			Password: "xpt_test",
			SSLMode:  "disable",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func connect(t *testing.T, cfg *sqlsink.Config) *pgxpool.Pool {
	t.Helper()
	pc := cfg.Postgres
	pool, err := pgxpool.New(context.Background(), fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pc.User, pc.Password, pc.Host, pc.Port, pc.Database))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func vitals() *xpttest.Builder {
	b := xpttest.New().
		String("USUBJID", "Unique Subject Identifier", 8).
		String("VSTESTCD", "Vital Signs Test Short Name", 8).
		Numeric("VSSTRESN", "Numeric Result")
	for i := 0; i < 1200; i++ {
		var result any = float64(60 + i%40)
		if i%100 == 99 {
			result = xpttest.Missing('.')
		}
		b.Row(fmt.Sprintf("02-%04d", i), "PULSE", result)
	}
	return b
}

func exportVitals(t *testing.T, cfg *sqlsink.Config, replace bool) (*export.Run, error) {
	t.Helper()

	s := xpt.NewSession(vitals().Reader(), xpt.WithMissingAsNaN(true))
	t.Cleanup(func() { _ = s.Close() })

	sink, err := sqlsink.New(cfg, sqlsink.WithReplace(replace))
	require.NoError(t, err)
	defer func() { require.NoError(t, sink.Close()) }()

	return export.Export(context.Background(), s, sink, "s3://submissions/vs.xpt", "vs", export.Options{BatchSize: 500})
}

func TestPostgresExport(t *testing.T) {
	cfg := startPostgres(t)
	pool := connect(t, cfg)
	ctx := context.Background()

	run, err := exportVitals(t, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), run.Rows)
	assert.Equal(t, 3, run.Batches)

	t.Run("Rows", func(t *testing.T) {
		var count, nulls int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*), count(*) - count("VSSTRESN") FROM "vs"`).Scan(&count, &nulls))
		assert.Equal(t, 1200, count)
		assert.Equal(t, 12, nulls)

		var subject, test string
		var result *float64
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT "USUBJID", "VSTESTCD", "VSSTRESN" FROM "vs" WHERE xpt_row_number = $1`, 42).
			Scan(&subject, &test, &result))
		assert.Equal(t, "02-0041", subject)
		assert.Equal(t, "PULSE", test)
		require.NotNil(t, result)
		assert.Equal(t, float64(60+41%40), *result)
	})

	t.Run("ColumnTypes", func(t *testing.T) {
		rows, err := pool.Query(ctx, `SELECT column_name, data_type FROM information_schema.columns
			WHERE table_name = 'vs' ORDER BY ordinal_position`)
		require.NoError(t, err)
		types, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([2]string, error) {
			var c [2]string
			err := row.Scan(&c[0], &c[1])
			return c, err
		})
		require.NoError(t, err)
		assert.Equal(t, [][2]string{
			{sqlsink.RowNumberColumn, "bigint"},
			{"USUBJID", "text"},
			{"VSTESTCD", "text"},
			{"VSSTRESN", "double precision"},
		}, types)
	})

	t.Run("RunRecorded", func(t *testing.T) {
		var status, target string
		var rowCount int64
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT status, target, rows FROM xpt_import_runs WHERE id = $1`, run.ID).
			Scan(&status, &target, &rowCount))
		assert.Equal(t, export.StatusCompleted, status)
		assert.Equal(t, "vs", target)
		assert.Equal(t, int64(1200), rowCount)
	})

	t.Run("ExistingTable", func(t *testing.T) {
		_, err := exportVitals(t, cfg, false)
		assert.True(t, errors.Is(err, export.ErrTableExists), "got %v", err)

		run, err := exportVitals(t, cfg, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1200), run.Rows)

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM "vs"`).Scan(&count))
		assert.Equal(t, 1200, count)
	})
}
