package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SessionMaxAge is how long an unused session record is kept.
const SessionMaxAge = 30 * 24 * time.Hour

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using an embedded SQLite database.
// It uses modernc.org/sqlite which is pure Go (no CGO).
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.RWMutex // serializes writes (SQLite is single-writer)
	closeCh chan struct{}
	once    sync.Once
}

// NewSQLiteStore opens or creates a SQLite database at dataDir/uibridge.db
// and runs schema migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	dbPath := filepath.Join(dataDir, "uibridge.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:      db,
		closeCh: make(chan struct{}),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}

	go s.cleanupLoop()

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			url TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// cleanupLoop periodically removes session records older than
// SessionMaxAge.
func (s *SQLiteStore) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case <-ticker.C:
			n, err := s.SessionPrune(context.Background(), time.Now().UTC().Add(-SessionMaxAge))
			if err != nil {
				slog.Warn("session cleanup failed", "err", err)
			} else if n > 0 {
				slog.Debug("pruned stale sessions", "count", n)
			}
		}
	}
}

// --- Sessions ---

func (s *SQLiteStore) SessionSet(ctx context.Context, url, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (url, session_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET session_id = excluded.session_id, updated_at = excluded.updated_at`,
		url, sessionID, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) SessionGet(ctx context.Context, url string) (*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r SessionRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT url, session_id, updated_at FROM sessions WHERE url = ?", url,
	).Scan(&r.URL, &r.SessionID, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) SessionDelete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE url = ?", url)
	return err
}

func (s *SQLiteStore) SessionList(ctx context.Context) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT url, session_id, updated_at FROM sessions ORDER BY updated_at DESC, url")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.URL, &r.SessionID, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) SessionPrune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close stops the cleanup loop and closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closeCh)
		err = s.db.Close()
	})
	return err
}
