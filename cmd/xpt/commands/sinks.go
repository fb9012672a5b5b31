package commands

import (
	"fmt"

	"github.com/marmos91/xptkit/internal/cli/prompt"
	"github.com/marmos91/xptkit/pkg/config"
	"github.com/marmos91/xptkit/pkg/export"
	"github.com/marmos91/xptkit/pkg/export/kvsink"
	"github.com/marmos91/xptkit/pkg/export/sqlsink"
)

// Sink names accepted by --to and --from.
const (
	sinkSQLite   = "sqlite"
	sinkPostgres = "postgres"
	sinkBadger   = "badger"
)

// sinkName returns the requested sink, or the configured database type.
func sinkName(cfg *config.Config, flag string) (string, error) {
	name := flag
	if name == "" {
		name = string(cfg.Export.Database.Type)
	}
	switch name {
	case sinkSQLite, sinkPostgres, sinkBadger:
		return name, nil
	default:
		return "", fmt.Errorf("unknown sink %q (valid: sqlite, postgres, badger)", name)
	}
}

// openSink opens the named sink. path overrides the sqlite file or the
// badger directory.
func openSink(cfg *config.Config, name, path string, replace bool) (export.Sink, error) {
	switch name {
	case sinkBadger:
		kcfg := cfg.Export.Badger
		if path != "" {
			kcfg.Path = path
			kcfg.InMemory = false
		}
		return kvsink.New(kcfg, kvsink.WithReplace(replace))

	case sinkSQLite, sinkPostgres:
		dbCfg, err := databaseConfig(cfg, name, path)
		if err != nil {
			return nil, err
		}
		return sqlsink.New(dbCfg, sqlsink.WithReplace(replace))

	default:
		return nil, fmt.Errorf("unknown sink %q", name)
	}
}

// databaseConfig copies the configured database section for the named
// type. A missing postgres password is asked for on a terminal.
func databaseConfig(cfg *config.Config, name, path string) (*sqlsink.Config, error) {
	dbCfg := cfg.Export.Database
	dbCfg.Type = sqlsink.DatabaseType(name)
	if name == sinkSQLite && path != "" {
		dbCfg.SQLite.Path = path
	}
	dbCfg.ApplyDefaults()

	if name == sinkPostgres && dbCfg.Postgres.Password == "" && prompt.Interactive() {
		password, err := prompt.Password(fmt.Sprintf("Password for %s@%s", dbCfg.Postgres.User, dbCfg.Postgres.Host), false)
		if err != nil {
			return nil, err
		}
		dbCfg.Postgres.Password = password
	}
	return &dbCfg, nil
}
