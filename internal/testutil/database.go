package testutil

import (
	"database/sql"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"newsstand/internal/infrastructure/mysql/migrations"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/newsstand_test?parseTime=true&loc=UTC&clientFoundRows=true"

// SetupTestDB opens the MySQL test database named by NEWSSTAND_TEST_DSN
// (default: newsstand_test on localhost) and skips the test when it is not
// reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("NEWSSTAND_TEST_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties every table and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}

	tables := []string{"sale_items", "sales", "products"}
	for _, table := range tables {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables applies the up migrations directly, without
// golang-migrate's version table, and starts from empty tables.
func SetupTestTables(t *testing.T, db *sql.DB) {
	t.Helper()

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		t.Fatalf("listing migrations: %v", err)
	}
	sort.Strings(files)

	for _, name := range files {
		ddl, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			t.Fatalf("reading migration %s: %v", name, err)
		}
		if _, err := db.Exec(strings.TrimSpace(string(ddl))); err != nil {
			t.Fatalf("applying migration %s: %v", name, err)
		}
	}

	for _, table := range []string{"sale_items", "sales", "products"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("failed to clean table %s: %v", table, err)
		}
	}
}
