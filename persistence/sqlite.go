package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the reference Store, one row per (run, storage key),
// ported from the teacher's checkpoint-table layout.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
}

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	Path string
	// TableName defaults to "polaris_resources" when empty.
	TableName string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at
// opts.Path and ensures the storage table exists.
func NewSQLiteStore(opts SQLiteOptions) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "polaris_resources"
	}

	store := &SQLiteStore{db: db, tableName: tableName}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (run_id, storage_key)
		);
	`, s.tableName)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save upserts one (runID, key) row.
func (s *SQLiteStore) Save(runID string, key string, schemaVersion int, data json.RawMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, storage_key, schema_version, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, storage_key) DO UPDATE SET
			schema_version = excluded.schema_version,
			data = excluded.data
	`, s.tableName)
	_, err := s.db.Exec(query, runID, key, schemaVersion, string(data))
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", runID, key, err)
	}
	return nil
}

// Load fetches one (runID, key) row. ok is false if no such row exists.
func (s *SQLiteStore) Load(runID string, key string) (json.RawMessage, int, bool, error) {
	query := fmt.Sprintf(`SELECT schema_version, data FROM %s WHERE run_id = ? AND storage_key = ?`, s.tableName)
	row := s.db.QueryRow(query, runID, key)

	var version int
	var data string
	if err := row.Scan(&version, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("load %s/%s: %w", runID, key, err)
	}
	return json.RawMessage(data), version, true, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
