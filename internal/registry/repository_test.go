package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/infrastructure/database"
	_ "github.com/nerrad567/fieldlink-core/migrations"
)

// openTestDB opens a throwaway catalogue store with the production
// migrations applied, so the repository runs against the real schema.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "catalog.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db
}

func testRecord(code string) CatalogRecord {
	return CatalogRecord{
		Code:           code,
		DisplayName:    "Modbus TCP",
		Description:    "Register polling over TCP",
		Category:       "industrial",
		Subcategory:    "fieldbus",
		ConnectionType: "polling",
		SchemaJSON:     `{"fields":{}}`,
		DefaultsJSON:   `{"port":502}`,
		CapabilityJSON: `{"supports_polling":true}`,
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestUpsertByCodeInsertsThenUpdates(t *testing.T) {
	repo := NewSQLiteCatalogRepository(openTestDB(t))
	ctx := context.Background()

	rec := testRecord("MODBUS_TCP")
	if err := repo.UpsertByCode(ctx, rec); err != nil {
		t.Fatalf("initial upsert: %v", err)
	}

	got, err := repo.GetByCode(ctx, "MODBUS_TCP")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.DisplayName != "Modbus TCP" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}

	// Second upsert with the same code must update, not duplicate
	rec.DisplayName = "Modbus TCP v2"
	if err := repo.UpsertByCode(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1 (upsert duplicated)", len(records))
	}
	if records[0].DisplayName != "Modbus TCP v2" {
		t.Errorf("DisplayName after update = %q", records[0].DisplayName)
	}
}

func TestGetByCodeNotFound(t *testing.T) {
	repo := NewSQLiteCatalogRepository(openTestDB(t))

	_, err := repo.GetByCode(context.Background(), "NO_SUCH")
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("expected ErrCatalogNotFound, got %v", err)
	}
}

func TestListOrdersByCode(t *testing.T) {
	repo := NewSQLiteCatalogRepository(openTestDB(t))
	ctx := context.Background()

	for _, code := range []string{"SNMP_V2C", "BACNET_IP", "MQTT"} {
		rec := testRecord(code)
		if err := repo.UpsertByCode(ctx, rec); err != nil {
			t.Fatalf("upsert %s: %v", code, err)
		}
	}

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"BACNET_IP", "MQTT", "SNMP_V2C"}
	if len(records) != len(want) {
		t.Fatalf("record count = %d, want %d", len(records), len(want))
	}
	for i, code := range want {
		if records[i].Code != code {
			t.Errorf("records[%d].Code = %q, want %q", i, records[i].Code, code)
		}
	}
}
