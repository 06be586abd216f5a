package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"
)

type MigrationStatus struct {
	NowUTC time.Time `json:"now_utc"`

	Dialect           string `json:"dialect"`
	UnversionedTables bool   `json:"unversioned_tables"`
	HasGooseTable     bool   `json:"has_goose_table"`
	CurrentVersion    int64  `json:"current_version"`
	LatestVersion     int64  `json:"latest_version"`
	HasPending        bool   `json:"has_pending"`
}

func GetMigrationStatus(ctx context.Context, db *sql.DB) (MigrationStatus, error) {
	now := time.Now().UTC()
	if db == nil {
		return MigrationStatus{NowUTC: now}, fmt.Errorf("nil db")
	}
	d, err := detectDialect(ctx, db)
	if err != nil {
		return MigrationStatus{NowUTC: now}, err
	}
	st := MigrationStatus{NowUTC: now, Dialect: d.name}
	latest, err := latestGooseMigrationVersion(d)
	if err != nil {
		return st, err
	}
	st.LatestVersion = latest

	hasGoose, err := tableExists(ctx, db, d, gooseTable)
	if err != nil {
		return st, err
	}
	st.HasGooseTable = hasGoose
	if !hasGoose {
		n, err := countUserTables(ctx, db, d)
		if err != nil {
			return st, err
		}
		st.UnversionedTables = n > 0
		st.HasPending = latest > 0
		return st, nil
	}
	cur, err := getGooseDBVersion(ctx, db)
	if err != nil {
		return st, err
	}
	st.CurrentVersion = cur
	st.HasPending = latest > cur
	return st, nil
}

func getGooseDBVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version_id), 0) FROM `+gooseTable).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func latestGooseMigrationVersion(d dialect) (int64, error) {
	entries, err := fs.Glob(gooseMigrationsFS, d.dir+"/*.sql")
	if err != nil {
		return 0, err
	}
	var max int64
	for _, p := range entries {
		// 00001_init.sql
		prefix, _, _ := strings.Cut(path.Base(p), "_")
		n, err := strconv.ParseInt(prefix, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}
