// Package store persists the session identifiers assigned by controllers so
// that a restarted bridge can resume with the reconnect form. The default
// implementation uses SQLite (pure Go, no CGO).
package store

import (
	"context"
	"time"
)

// SessionRecord is the last session assigned by the controller behind a
// channel URL.
type SessionRecord struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the bridge's storage interface. All methods are safe for
// concurrent use.
type Store interface {
	SessionSet(ctx context.Context, url, sessionID string) error
	// SessionGet returns nil when no session is recorded for url.
	SessionGet(ctx context.Context, url string) (*SessionRecord, error)
	SessionDelete(ctx context.Context, url string) error
	SessionList(ctx context.Context) ([]SessionRecord, error)
	// SessionPrune drops records not updated since before, returning how
	// many were removed.
	SessionPrune(ctx context.Context, before time.Time) (int64, error)

	// Close releases resources (e.g. closes the database).
	Close() error
}
