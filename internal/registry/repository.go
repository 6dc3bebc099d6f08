package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
	"github.com/nerrad567/fieldlink-core/internal/infrastructure/database"
)

// CatalogRecord is one durable protocol-catalogue row. Schema, defaults
// and capabilities are stored as JSON text columns.
type CatalogRecord struct {
	Code           string
	DisplayName    string
	Description    string
	Category       string
	Subcategory    string
	ConnectionType string
	SchemaJSON     string
	DefaultsJSON   string
	CapabilityJSON string
	UpdatedAt      time.Time
}

// CatalogRepository defines the durable protocol-catalogue interface.
// The catalogue is a derived cache written only by the registry's sync
// step; last writer wins, no locking required.
type CatalogRepository interface {
	// UpsertByCode updates the record with the same code, creating it
	// if absent.
	UpsertByCode(ctx context.Context, rec CatalogRecord) error

	// GetByCode retrieves one record. Returns ErrCatalogNotFound if the
	// code has never been synced.
	GetByCode(ctx context.Context, code string) (*CatalogRecord, error)

	// List retrieves all records ordered by code.
	List(ctx context.Context) ([]CatalogRecord, error)
}

// recordFromDescriptor marshals a live descriptor into its durable
// representation.
func recordFromDescriptor(d adapter.Descriptor) (CatalogRecord, error) {
	schemaJSON, err := json.Marshal(d.Schema)
	if err != nil {
		return CatalogRecord{}, fmt.Errorf("marshalling schema: %w", err)
	}
	defaultsJSON, err := json.Marshal(d.Defaults)
	if err != nil {
		return CatalogRecord{}, fmt.Errorf("marshalling defaults: %w", err)
	}
	capsJSON, err := json.Marshal(d.Capabilities)
	if err != nil {
		return CatalogRecord{}, fmt.Errorf("marshalling capabilities: %w", err)
	}

	return CatalogRecord{
		Code:           d.Code,
		DisplayName:    d.DisplayName,
		Description:    d.Description,
		Category:       string(d.Category),
		Subcategory:    d.Subcategory,
		ConnectionType: string(d.ConnectionType),
		SchemaJSON:     string(schemaJSON),
		DefaultsJSON:   string(defaultsJSON),
		CapabilityJSON: string(capsJSON),
		UpdatedAt:      time.Now().UTC(),
	}, nil
}

// SQLiteCatalogRepository implements CatalogRepository using SQLite.
type SQLiteCatalogRepository struct {
	db *database.DB
}

// NewSQLiteCatalogRepository creates a new SQLite-backed catalogue.
// The store must have the protocol_catalog migration applied.
func NewSQLiteCatalogRepository(db *database.DB) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{db: db}
}

// UpsertByCode updates the record with the same code, creating it if
// absent. Find-then-create keeps the write path explicit and matches
// SQLite's single-writer model.
func (r *SQLiteCatalogRepository) UpsertByCode(ctx context.Context, rec CatalogRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE protocol_catalog
		SET display_name = ?, description = ?, category = ?, subcategory = ?,
			connection_type = ?, config_schema = ?, default_config = ?,
			capabilities = ?, updated_at = ?
		WHERE code = ?`,
		rec.DisplayName, rec.Description, rec.Category, rec.Subcategory,
		rec.ConnectionType, rec.SchemaJSON, rec.DefaultsJSON,
		rec.CapabilityJSON, rec.UpdatedAt, rec.Code,
	)
	if err != nil {
		return fmt.Errorf("updating catalogue record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO protocol_catalog
			(code, display_name, description, category, subcategory,
			 connection_type, config_schema, default_config, capabilities, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Code, rec.DisplayName, rec.Description, rec.Category, rec.Subcategory,
		rec.ConnectionType, rec.SchemaJSON, rec.DefaultsJSON,
		rec.CapabilityJSON, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting catalogue record: %w", err)
	}
	return nil
}

// GetByCode retrieves one catalogue record.
func (r *SQLiteCatalogRepository) GetByCode(ctx context.Context, code string) (*CatalogRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT code, display_name, description, category, subcategory,
			connection_type, config_schema, default_config, capabilities, updated_at
		FROM protocol_catalog
		WHERE code = ?`, code)

	rec, err := scanCatalogRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, code)
		}
		return nil, fmt.Errorf("querying catalogue by code: %w", err)
	}
	return rec, nil
}

// List retrieves all catalogue records ordered by code.
func (r *SQLiteCatalogRepository) List(ctx context.Context) ([]CatalogRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, display_name, description, category, subcategory,
			connection_type, config_schema, default_config, capabilities, updated_at
		FROM protocol_catalog
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing catalogue: %w", err)
	}
	defer rows.Close()

	var records []CatalogRecord
	for rows.Next() {
		rec, err := scanCatalogRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalogue row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalogue rows: %w", err)
	}
	return records, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogRecord(row rowScanner) (*CatalogRecord, error) {
	var rec CatalogRecord
	err := row.Scan(
		&rec.Code, &rec.DisplayName, &rec.Description, &rec.Category,
		&rec.Subcategory, &rec.ConnectionType, &rec.SchemaJSON,
		&rec.DefaultsJSON, &rec.CapabilityJSON, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
