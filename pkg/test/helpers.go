package test

import (
	"database/sql"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskapp/internal/adapter/database/sqlite"
	"taskapp/pkg"
)

// InitTestDB opens a private in-memory sqlite database with migrations applied.
func InitTestDB() *sqlite.DB {
	dsn := sqlite.DSN("file:" + uuid.NewString() + "?mode=memory&cache=shared")

	db, err := sql.Open("sqlite3", dsn)

	if err != nil {
		log.Fatal(err)
	}

	db.SetMaxOpenConns(1)

	migrationsPath := filepath.Join(pkg.FindProjectRoot(), "db", "migrations", "sqlite")

	if err := sqlite.RunMigrations(db, migrationsPath); err != nil {
		log.Fatal(err)
	}

	return sqlite.Wrap(db)
}

func CleanDB(t *testing.T, db *sql.DB) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT IN ('sqlite_sequence', 'schema_migrations')")
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}

	var tables []string

	for rows.Next() {
		var table string

		if err := rows.Scan(&table); err != nil {
			rows.Close()
			t.Fatalf("Failed to scan table name: %v", err)
		}

		tables = append(tables, strings.TrimSpace(table))
	}

	rows.Close()

	// tasks reference users, so children go first.
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := db.Exec("DELETE FROM " + tables[i]); err != nil {
			t.Fatalf("Failed to clean table %s: %v", tables[i], err)
		}
	}
}

func CloseDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	if err := db.Close(); err != nil {
		t.Logf("Failed to close test database: %v", err)
	}
}
