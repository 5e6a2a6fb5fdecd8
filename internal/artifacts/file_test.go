package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

// --- Round trips ---

func TestFileStore_PutThenGet(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "owner-1", "report/research", []byte("# Findings\n\nBody.")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rec, err := store.Get(ctx, "owner-1", "report/research")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Value != "# Findings\n\nBody." {
		t.Errorf("Value = %q, want the stored body", rec.Value)
	}
	if rec.OwnerID != "owner-1" || rec.Key != "report/research" {
		t.Errorf("identity = %s/%s, want owner-1/report/research", rec.OwnerID, rec.Key)
	}
	if rec.ID == "" {
		t.Error("record id should be minted on first put")
	}
	if rec.CreatedAt != frozenStamp || rec.UpdatedAt != frozenStamp {
		t.Errorf("timestamps = %s / %s, want %s", rec.CreatedAt, rec.UpdatedAt, frozenStamp)
	}
}

func TestFileStore_OverwriteKeepsIdentity(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "owner-1", "report/research", []byte("first")); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	first, err := store.Get(ctx, "owner-1", "report/research")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Advance the clock so the second write is distinguishable.
	restore := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC) }
	defer func() { timeNow = restore }()

	if err := store.Put(ctx, "owner-1", "report/research", []byte("second")); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}
	second, err := store.Get(ctx, "owner-1", "report/research")
	if err != nil {
		t.Fatalf("Get() after overwrite error = %v", err)
	}

	if second.Value != "second" {
		t.Errorf("Value = %q, want %q", second.Value, "second")
	}
	if second.ID != first.ID {
		t.Errorf("ID changed on overwrite: %s -> %s", first.ID, second.ID)
	}
	if second.CreatedAt != frozenStamp {
		t.Errorf("CreatedAt = %s, want the original %s", second.CreatedAt, frozenStamp)
	}
	if second.UpdatedAt != "2026-03-14T10:30:00Z" {
		t.Errorf("UpdatedAt = %s, want the overwrite time", second.UpdatedAt)
	}
}

// --- Misses and bad input ---

func TestFileStore_GetMissing(t *testing.T) {
	store := newFileStore(t)

	_, err := store.Get(context.Background(), "owner-1", "report/research")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_CorruptRecord(t *testing.T) {
	store := newFileStore(t)
	path := store.recordPath("owner-1", "report/research")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seeding corrupt file: %v", err)
	}

	_, err := store.Get(context.Background(), "owner-1", "report/research")
	if err == nil {
		t.Fatal("Get() on corrupt record should fail")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("corrupt record must not read as a miss")
	}
}

// --- Filename flattening ---

func TestFileStore_HostileIdentifiersStayInDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "../owner", "report/../../escape", []byte("x")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rec, err := store.Get(ctx, "../owner", "report/../../escape")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Value != "x" {
		t.Errorf("Value = %q, want %q", rec.Value, "x")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading store dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("unexpected subdirectory %q, identifiers must flatten to filenames", e.Name())
		}
	}
	if parent, err := os.ReadDir(filepath.Dir(dir)); err == nil {
		for _, e := range parent {
			if !e.IsDir() {
				t.Errorf("record %q escaped the store directory", e.Name())
			}
		}
	}
}
