// Package artifacts persists finalized workflow output.
//
// A Store keeps one record per (owner, key) pair. The supervisor writes
// through it exactly once per workflow, at finalization; reads happen out
// of band. Three backends are provided: local JSON files, SQLite and
// Redis, selected through config.Artifacts.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HendryAvila/steward/internal/config"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// ErrNotFound is returned by Get when no record exists for the pair.
var ErrNotFound = errors.New("artifacts: not found")

// Record is a stored artifact with its bookkeeping metadata. Value is the
// artifact body as produced by the workflow, usually markdown.
type Record struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Store defines the persistence interface for workflow artifacts.
// Put overwrites any previous record for the same owner and key, keeping
// the original record id and creation time.
type Store interface {
	Put(ctx context.Context, ownerID, key string, value []byte) error
	Get(ctx context.Context, ownerID, key string) (*Record, error)
	Close() error
}

// Open constructs the Store selected by cfg. The context is only used by
// backends that dial out (the redis connectivity check).
func Open(ctx context.Context, cfg config.Artifacts) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Dir)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.TTL())
	default:
		return nil, fmt.Errorf("artifacts: unknown backend %q", cfg.Backend)
	}
}

func nowRFC3339() string {
	return timeNow().UTC().Format(time.RFC3339)
}
