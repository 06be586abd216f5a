package store

import (
	"context"
	"testing"
)

func TestMigrationStatusAfterApply(t *testing.T) {
	db := mustTestDB(t)
	st, err := GetMigrationStatus(context.Background(), db)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Dialect != "sqlite3" || !st.HasGooseTable {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.CurrentVersion != st.LatestVersion || st.HasPending || st.LatestVersion < 1 {
		t.Fatalf("expected fully migrated db: %+v", st)
	}
	if err := ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("second apply should be a no-op: %v", err)
	}
}

func TestMigrationDirsStayInStep(t *testing.T) {
	pg, err := latestGooseMigrationVersion(dialectPostgres)
	if err != nil {
		t.Fatalf("pg: %v", err)
	}
	lite, err := latestGooseMigrationVersion(dialectSQLite)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if pg != lite {
		t.Fatalf("migration sets diverged: pg=%d sqlite=%d", pg, lite)
	}
}
