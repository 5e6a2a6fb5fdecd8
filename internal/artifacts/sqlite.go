package artifacts

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path with WAL mode and
// runs the schema migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("artifacts: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("artifacts: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("artifacts: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("artifacts: migration: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS artifacts (
			id         TEXT NOT NULL,
			owner_id   TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_artifacts_owner ON artifacts(owner_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put upserts the record for the owner/key pair. The record id and
// creation time survive overwrites.
func (s *SQLiteStore) Put(ctx context.Context, ownerID, key string, value []byte) error {
	now := nowRFC3339()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, owner_id, key, value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id, key) DO UPDATE SET
		     value = excluded.value,
		     updated_at = excluded.updated_at`,
		uuid.NewString(), ownerID, key, string(value), now, now,
	)
	if err != nil {
		return fmt.Errorf("artifacts: put %s/%s: %w", ownerID, key, err)
	}
	return nil
}

// Get reads the record for an owner/key pair.
func (s *SQLiteStore) Get(ctx context.Context, ownerID, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, key, value, created_at, updated_at
		 FROM artifacts WHERE owner_id = ? AND key = ?`,
		ownerID, key,
	)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Key, &rec.Value, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("artifacts: get %s/%s: %w", ownerID, key, err)
	}
	return &rec, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
