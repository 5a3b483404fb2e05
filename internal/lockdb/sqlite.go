package lockdb

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

// ErrNoIndex reports a database file without a lock index schema.
var ErrNoIndex = errors.New("no lock index schema")

// readOnlyDSN opens path without creating it or writing to it.
func readOnlyDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

// openIndex opens a lock index for writing, creating its schema when it is
// new.
func openIndex(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock index: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: index schema version %d is newer than %d", ErrMalformedLock, version, schemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queries := []string{
		// One row per project; root and main are resources relative to the
		// lock directory.
		`CREATE TABLE IF NOT EXISTS documents (
            id TEXT PRIMARY KEY,
            root TEXT NOT NULL DEFAULT '',
            main TEXT NOT NULL DEFAULT ''
        )`,

		`CREATE TABLE IF NOT EXISTS routes (
            input TEXT NOT NULL,
            project TEXT NOT NULL,
            priority INTEGER NOT NULL DEFAULT 0,
            PRIMARY KEY (input, project)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_documents_main ON documents(main)`,

		`CREATE TABLE IF NOT EXISTS metadata (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        )`,
	}
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %w", query, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return tx.Commit()
}

// ReadSQLite loads a tinymist.lock.db index. The file is opened read-only.
// A database without the index schema yields ErrNoIndex.
func ReadSQLite(path string) (*LockFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open lock index: %w", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedLock, path, err)
	}
	switch {
	case version == 0:
		return nil, fmt.Errorf("%w: %s", ErrNoIndex, path)
	case version != schemaVersion:
		return nil, fmt.Errorf("%w: %s has schema version %d, want %d", ErrMalformedLock, path, version, schemaVersion)
	}

	var lock LockFile
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'version'").Scan(&lock.Version)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read lock version: %w", err)
	}

	rows, err := db.Query("SELECT id, root, main FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(&doc.ID, &doc.Root, &doc.Main); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		lock.Documents = append(lock.Documents, doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	rows, err = db.Query("SELECT input, project, priority FROM routes ORDER BY input, priority DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var route Route
		if err := rows.Scan(&route.Input, &route.Project, &route.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		lock.Routes = append(lock.Routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}

	if err := lock.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &lock, nil
}

// WriteSQLite replaces the content of the index at path with lock.
func WriteSQLite(path string, lock *LockFile) error {
	if err := lock.validate(); err != nil {
		return err
	}
	db, err := openIndex(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{"DELETE FROM documents", "DELETE FROM routes"} {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}

	version := lock.Version
	if version == "" {
		version = lockVersion
	}
	if _, err := tx.Exec(
		"INSERT INTO metadata (key, value) VALUES ('version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		version,
	); err != nil {
		return fmt.Errorf("failed to write lock version: %w", err)
	}

	for _, doc := range lock.Documents {
		if _, err := tx.Exec(
			"INSERT INTO documents (id, root, main) VALUES (?, ?, ?)",
			doc.ID, doc.Root, doc.Main,
		); err != nil {
			return fmt.Errorf("failed to insert document %q: %w", doc.ID, err)
		}
	}
	for _, route := range lock.Routes {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO routes (input, project, priority) VALUES (?, ?, ?)",
			route.Input, route.Project, route.Priority,
		); err != nil {
			return fmt.Errorf("failed to insert route %q: %w", route.Input, err)
		}
	}

	return tx.Commit()
}
