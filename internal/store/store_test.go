package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jherforth/HomeGlow-sub000/internal/database"
)

// newTestDB opens a migrated, file-backed SQLite database in a temp dir.
// A file (not :memory:) because database/sql pools connections and each
// in-memory connection would get its own empty database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func intPtr(i int64) *int64 { return &i }
