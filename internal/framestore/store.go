// Package framestore persists laser frames and submission history in
// SQLite and exposes admin routes for live inspection and backup.
package framestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path, applies the
// connection PRAGMAs and runs any pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: path}

	if err := db.applyPragmas(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	fsys, err := getMigrationsFS()
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	if err := db.MigrateUp(fsys); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// applyPragmas sets the connection PRAGMAs used on every database:
// WAL journaling, a 5s busy timeout, NORMAL sync and in-memory temp
// storage.
func (db *DB) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}
