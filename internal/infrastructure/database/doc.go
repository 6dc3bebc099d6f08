// Package database provides SQLite connectivity for the durable
// protocol catalogue.
//
// The store is a derived cache: the in-memory registry is the source of
// truth and syncs the catalogue best-effort at startup, so the schema
// favours simplicity over integrity machinery. WAL mode keeps catalogue
// reads from blocking the sync writer, and the pool is pinned to a
// single connection to match SQLite's single-writer model.
//
// Schema changes ship as embedded migrations named
// YYYYMMDD_HHMMSS_description.{up,down}.sql, applied in version order,
// one transaction per migration.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements and the database file is
// created owner read/write only.
package database
