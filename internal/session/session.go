// Package session persists diagnostic conversations and their recovery
// snapshots behind a driver-agnostic Store.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

// Common errors for session store operations.
var (
	ErrInvalidConfig    = errors.New("invalid session store configuration")
	ErrInvalidStoreType = errors.New("invalid session store type")
	ErrExists           = errors.New("session already exists")
	ErrNotFound         = errors.New("session not found")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrClosed           = errors.New("session store closed")
)

// Data is the persisted state of one session.
type Data struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Version   int64               `json:"version"`
	Context   *diagnostic.Context `json:"context"`
}

// Snapshot is a known-good copy of a session's conversation. Only the latest
// snapshot per session is kept.
type Snapshot struct {
	SessionID string              `json:"session_id"`
	Context   *diagnostic.Context `json:"context"`
	CreatedAt time.Time           `json:"created_at"`
}

// Store defines the interface for session storage operations.
type Store interface {
	// Create stores a new session with Version set to 1.
	// Returns ErrExists if the session already exists.
	Create(ctx context.Context, data *Data) error

	// Get retrieves a session by ID.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, id string) (*Data, error)

	// Update replaces an existing session with optimistic locking: the
	// stored Version must equal data.Version, which is then incremented.
	// Returns ErrVersionConflict or ErrNotFound.
	Update(ctx context.Context, data *Data) error

	// Delete deletes a session and its snapshot.
	Delete(ctx context.Context, id string) error

	// SaveSnapshot replaces the session's recovery snapshot.
	SaveSnapshot(ctx context.Context, snap Snapshot) error

	// LatestSnapshot returns the session's snapshot, or nil if none exists.
	LatestSnapshot(ctx context.Context, sessionID string) (*Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
