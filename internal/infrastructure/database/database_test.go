package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// catalogueDDL is a cut-down protocol_catalog table for exercising the
// wrapper without pulling in the production migrations.
const catalogueDDL = `
	CREATE TABLE protocol_catalog (
		code         TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := Open(Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	return db
}

func TestOpenCreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "fieldlink", "catalog.db")

	db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

func TestExecAndQueryCatalogueRow(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, catalogueDDL); err != nil {
		t.Fatalf("creating table: %v", err)
	}

	result, err := db.ExecContext(ctx,
		"INSERT INTO protocol_catalog (code, display_name, updated_at) VALUES (?, ?, ?)",
		"MODBUS_TCP", "Modbus TCP", time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("inserting row: %v", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		t.Errorf("RowsAffected() = %d, want 1", n)
	}

	var name string
	err = db.QueryRowContext(ctx,
		"SELECT display_name FROM protocol_catalog WHERE code = ?", "MODBUS_TCP",
	).Scan(&name)
	if err != nil {
		t.Fatalf("querying row: %v", err)
	}
	if name != "Modbus TCP" {
		t.Errorf("display_name = %q", name)
	}
}

func TestTransactionRollbackLeavesCatalogueUntouched(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, catalogueDDL); err != nil {
		t.Fatalf("creating table: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO protocol_catalog (code, display_name, updated_at) VALUES (?, ?, ?)",
		"SNMP", "SNMP", time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM protocol_catalog",
	).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 0 {
		t.Errorf("row count after rollback = %d, want 0", count)
	}
}

func TestTransactionCommitPersists(t *testing.T) {
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, catalogueDDL); err != nil {
		t.Fatalf("creating table: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO protocol_catalog (code, display_name, updated_at) VALUES (?, ?, ?)",
		"MQTT", "MQTT Sensor", time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM protocol_catalog WHERE code = ?", "MQTT",
	).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("row count after commit = %d, want 1", count)
	}
}
