package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"securereport/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_pg/*.sql migrations_sqlite/*.sql
var gooseMigrationsFS embed.FS

const gooseTable = "goose_db_version"

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

type dialect struct {
	name string
	dir  string
}

var (
	dialectPostgres = dialect{name: "postgres", dir: "migrations_pg"}
	dialectSQLite   = dialect{name: "sqlite3", dir: "migrations_sqlite"}
)

func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	d, err := detectDialect(ctx, db)
	if err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.SetDialect(d.name); err != nil {
		return err
	}
	goose.SetBaseFS(gooseMigrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := enforceVersionedDatabase(ctx, db, d); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("applying goose migrations (%s)", d.name)
	}
	if err := goose.UpContext(ctx, db, d.dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	if logger != nil {
		logger.Printf("goose migrations applied")
	}
	return nil
}

// A database holding tables but no goose version table was not created by
// these migrations and is refused.
func enforceVersionedDatabase(ctx context.Context, db *sql.DB, d dialect) error {
	hasGoose, err := tableExists(ctx, db, d, gooseTable)
	if err != nil {
		return err
	}
	if hasGoose {
		return nil
	}
	n, err := countUserTables(ctx, db, d)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("database has unversioned tables: reset it and run fresh migrations")
	}
	return nil
}

func countUserTables(ctx context.Context, db *sql.DB, d dialect) (int, error) {
	var n int
	var err error
	if d == dialectPostgres {
		err = db.QueryRowContext(ctx, `
			SELECT COUNT(1)
			FROM information_schema.tables
			WHERE table_schema='public'
				AND table_type='BASE TABLE'
				AND table_name <> ?
		`, gooseTable).Scan(&n)
	} else {
		err = db.QueryRowContext(ctx, `
			SELECT COUNT(1) FROM sqlite_master
			WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name <> ?
		`, gooseTable).Scan(&n)
	}
	return n, err
}

func tableExists(ctx context.Context, db *sql.DB, d dialect, name string) (bool, error) {
	var n int
	var err error
	if d == dialectPostgres {
		err = db.QueryRowContext(ctx, `
			SELECT COUNT(1)
			FROM information_schema.tables
			WHERE table_schema='public' AND table_name=?
		`, name).Scan(&n)
	} else {
		err = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func detectDialect(ctx context.Context, db *sql.DB) (dialect, error) {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return dialect{}, err
	}
	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return dialectSQLite, nil
	}
	return dialectPostgres, nil
}
