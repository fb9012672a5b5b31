package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/xpt"
	"github.com/marmos91/xptkit/pkg/xpt/xpttest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demographics() *xpttest.Builder {
	return xpttest.New().
		String("USUBJID", "Unique Subject Identifier", 8).
		Numeric("AGE", "Age").
		String("SEX", "Sex", 1).
		Row("01-001", 34.0, "F").
		Row("01-002", xpttest.Missing('.'), "M").
		Row("01-003", 51.5, "F")
}

// setup isolates config and data directories and writes the fixture.
func setup(t *testing.T) (dir, file string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	file = filepath.Join(dir, "dm.xpt")
	require.NoError(t, os.WriteFile(file, demographics().Bytes(), 0644))
	return dir, file
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVars(t *testing.T) {
	_, file := setup(t)

	out, err := execute(t, nil, "vars", file, "-o", "json")
	require.NoError(t, err)

	var vars []xpt.Variable
	require.NoError(t, json.Unmarshal([]byte(out), &vars))
	require.Len(t, vars, 3)
	assert.Equal(t, "USUBJID", vars[0].Name)
	assert.Equal(t, xpt.KindNumeric, vars[1].Kind)
	assert.Equal(t, 8, vars[1].Offset)
	assert.Equal(t, "Sex", vars[2].Label)

	out, err = execute(t, nil, "vars", file)
	require.NoError(t, err)
	assert.Contains(t, out, "USUBJID")
	assert.Contains(t, out, "numeric")
	assert.Contains(t, out, "Unique Subject Identifier")
}

func TestDump(t *testing.T) {
	_, file := setup(t)

	t.Run("NDJSON", func(t *testing.T) {
		out, err := execute(t, nil, "dump", file, "-o", "ndjson")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, `{"USUBJID":"01-001","AGE":34,"SEX":"F"}`, lines[0])
		assert.Equal(t, `{"USUBJID":"01-002","AGE":null,"SEX":"M"}`, lines[1])
		assert.Equal(t, `{"USUBJID":"01-003","AGE":51.5,"SEX":"F"}`, lines[2])
	})

	t.Run("Limit", func(t *testing.T) {
		out, err := execute(t, nil, "dump", file, "--limit", "1", "-o", "json")
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "01-001", rows[0]["USUBJID"])
	})

	t.Run("Table", func(t *testing.T) {
		out, err := execute(t, nil, "dump", file)
		require.NoError(t, err)
		assert.Contains(t, out, "USUBJID")
		assert.Contains(t, out, "51.5")

		var cells []string
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "01-002") {
				cells = strings.Fields(line)
			}
		}
		assert.Equal(t, []string{"01-002", ".", "M"}, cells)
	})

	t.Run("MissingAsNaNDisabled", func(t *testing.T) {
		t.Setenv("XPT_DECODE_MISSING_AS_NAN", "false")
		out, err := execute(t, nil, "dump", file, "-o", "ndjson")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.NotContains(t, lines[1], "null")
	})

	t.Run("As", func(t *testing.T) {
		out, err := execute(t, nil, "dump", file, "--as", "s,s", "-o", "ndjson")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, `{"USUBJID":"01-001","AGE":"34"}`, lines[0])
	})

	t.Run("AsCoercionError", func(t *testing.T) {
		_, err := execute(t, nil, "dump", file, "--as", "d")
		var cerr *xpt.CoercionError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "USUBJID", cerr.Variable)
		assert.Contains(t, err.Error(), "row 1")
	})

	t.Run("AsTooMany", func(t *testing.T) {
		_, err := execute(t, nil, "dump", file, "--as", "s,d,s,d")
		assert.ErrorIs(t, err, xpt.ErrTooManySlots)
	})

	t.Run("AsInvalid", func(t *testing.T) {
		_, err := execute(t, nil, "dump", file, "--as", "x")
		assert.Error(t, err)
	})

	t.Run("Stdin", func(t *testing.T) {
		out, err := execute(t, bytes.NewReader(demographics().Bytes()), "dump", "-", "-o", "ndjson")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		_, err := execute(t, nil, "dump", file, "-o", "xml")
		assert.Error(t, err)
	})
}

func TestDumpErrors(t *testing.T) {
	dir, _ := setup(t)

	t.Run("MissingFile", func(t *testing.T) {
		_, err := execute(t, nil, "dump", filepath.Join(dir, "missing.xpt"))
		var oerr *xpt.OpenError
		require.ErrorAs(t, err, &oerr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("NotTransportFile", func(t *testing.T) {
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a transport file "), 10), 0644))

		_, err := execute(t, nil, "dump", path)
		assert.ErrorIs(t, err, xpt.ErrMissingLibraryHeader)
		var herr *xpt.HeaderError
		assert.ErrorAs(t, err, &herr)
	})

	t.Run("Truncated", func(t *testing.T) {
		b := demographics()
		data := b.Bytes()
		path := filepath.Join(dir, "cut.xpt")
		require.NoError(t, os.WriteFile(path, data[:b.DataOffset()+int64(b.RecordLength())+5], 0644))

		out, err := execute(t, nil, "dump", path, "-o", "ndjson")
		assert.ErrorIs(t, err, xpt.ErrTruncated)
		assert.Contains(t, out, "01-001", "rows before the cut are still printed")
	})
}

func TestInfo(t *testing.T) {
	_, file := setup(t)

	out, err := execute(t, nil, "info", file, "-o", "json")
	require.NoError(t, err)

	var info datasetInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, file, info.Source)
	assert.Equal(t, 3, info.Variables)
	assert.Equal(t, 17, info.RecordLength)
	assert.Equal(t, xpt.NamestrSize, info.NamestrSize)
	assert.Equal(t, demographics().DataOffset(), info.DataOffset)
	require.Len(t, info.Library, 2)
	assert.Equal(t, "SAS SAS SASLIB 9.4 X64_10PR 01JAN24:10:00:00", info.Library[0])
	require.Len(t, info.Member, 2)
	assert.Contains(t, info.Member[1], "Fixture dataset")

	out, err = execute(t, nil, "info", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Record length")
	assert.Contains(t, out, "17")
}

func TestRecordText(t *testing.T) {
	got := recordText([][]byte{[]byte("SAS  \x00\x01 LIB   \xff")})
	assert.Equal(t, []string{"SAS LIB"}, got)
}

func TestExportSQLite(t *testing.T) {
	dir, file := setup(t)
	db := filepath.Join(dir, "out.db")

	out, err := execute(t, nil, "export", file, "--to", "sqlite", "--path", db, "--batch-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, `Exported 3 rows`)
	assert.Contains(t, out, `table "dm"`)

	// A second export of the same table needs --force when nobody can confirm.
	_, err = execute(t, nil, "export", file, "--to", "sqlite", "--path", db)
	require.Error(t, err)
	assert.ErrorIs(t, err, export.ErrTableExists)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, nil, "export", file, "--to", "sqlite", "--path", db, "--force", "--table", "dm")
	require.NoError(t, err)

	out, err = execute(t, nil, "runs", "--from", "sqlite", "--path", db, "-o", "json")
	require.NoError(t, err)

	var runs []runEntry
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, export.StatusCompleted, r.Status)
		assert.Equal(t, int64(3), r.Rows)
		assert.Equal(t, "dm", r.Target)
		assert.NotNil(t, r.FinishedAt)
	}
}

func TestExportDefaultDatabase(t *testing.T) {
	dir, file := setup(t)

	_, err := execute(t, nil, "export", file, "--table", "demo", "--limit", "2")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "data", "xpt", "export.db"))

	out, err := execute(t, nil, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "completed")
}

func TestExportBadger(t *testing.T) {
	dir, file := setup(t)
	kv := filepath.Join(dir, "kv")

	_, err := execute(t, nil, "export", file, "--to", "badger", "--path", kv)
	require.NoError(t, err)

	out, err := execute(t, nil, "runs", "--from", "badger", "--path", kv, "-o", "json")
	require.NoError(t, err)

	var runs []runEntry
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, int64(3), runs[0].Rows)
	assert.Equal(t, file, runs[0].Source)
}

func TestExportErrors(t *testing.T) {
	dir, file := setup(t)

	_, err := execute(t, nil, "export", file, "--to", "oracle")
	assert.ErrorContains(t, err, "unknown sink")

	_, err = execute(t, nil, "export", "s3://bucket-only")
	assert.Error(t, err)

	b := demographics()
	data := b.Bytes()
	cut := filepath.Join(dir, "cut.xpt")
	require.NoError(t, os.WriteFile(cut, data[:b.DataOffset()+int64(b.RecordLength())+5], 0644))

	db := filepath.Join(dir, "cut.db")
	_, err = execute(t, nil, "export", cut, "--path", db)
	require.ErrorIs(t, err, xpt.ErrTruncated)
	assert.Contains(t, err.Error(), "after 1 rows")

	out, err := execute(t, nil, "runs", "--path", db, "-o", "json")
	require.NoError(t, err)
	var runs []runEntry
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, export.StatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestInitAndConfig(t *testing.T) {
	dir, _ := setup(t)
	path := filepath.Join(dir, "xpt.yaml")

	out, err := execute(t, nil, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, nil, "init", "--config", path)
	assert.Error(t, err)

	out, err = execute(t, nil, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "sqlite")

	out, err = execute(t, nil, "config", "show", "--config", path, "-o", "json")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "Decode")

	out, err = execute(t, nil, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "buffer_size: 64Ki")
	assert.Contains(t, out, "missing_as_nan: true")

	_, err = execute(t, nil, "config", "validate", "--config", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "configuration file not found")
}

func TestConfigSchema(t *testing.T) {
	dir, _ := setup(t)

	out, err := execute(t, nil, "config", "schema")
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "xpt Configuration", schema["title"])

	path := filepath.Join(dir, "schema.json")
	out, err = execute(t, nil, "config", "schema", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "xpt dev")
	assert.Contains(t, out, "Go version")
}

func TestArgs(t *testing.T) {
	setup(t)

	_, err := execute(t, nil, "dump")
	assert.Error(t, err)

	_, err = execute(t, nil, "vars", "a.xpt", "b.xpt")
	assert.Error(t, err)
}
