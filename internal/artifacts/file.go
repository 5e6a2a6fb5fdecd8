package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore implements Store using one JSON file per record under a data
// directory. Owner ids and keys are flattened into a single safe filename,
// so values never influence the directory layout.
type FileStore struct {
	dir string
}

// NewFileStore creates a filesystem-backed artifact store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// recordPath returns the absolute path for an owner/key pair.
func (fs *FileStore) recordPath(ownerID, key string) string {
	name := safeSegment(ownerID) + "__" + safeSegment(key) + ".json"
	return filepath.Join(fs.dir, name)
}

// safeSegment maps an arbitrary identifier onto filename-safe characters.
func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}

// Put writes the record, preserving the id and creation time of any
// existing record for the pair. The write goes through a temp file and a
// rename so readers never observe a half-written record.
func (fs *FileStore) Put(_ context.Context, ownerID, key string, value []byte) error {
	now := nowRFC3339()
	rec := Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Key:       key,
		Value:     string(value),
		CreatedAt: now,
		UpdatedAt: now,
	}

	path := fs.recordPath(ownerID, key)
	if prev, err := readRecord(path); err == nil {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling artifact record: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing artifact record: %w", err)
	}
	return nil
}

// Get reads the record for an owner/key pair.
func (fs *FileStore) Get(_ context.Context, ownerID, key string) (*Record, error) {
	rec, err := readRecord(fs.recordPath(ownerID, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Close is a no-op for the file backend.
func (fs *FileStore) Close() error { return nil }

func readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing artifact record %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}
