package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/boilerbrain/internal/db"
	"github.com/ziadkadry99/boilerbrain/internal/diagnostic"
)

// SQLiteStore implements Store on the chat_sessions and recovery_snapshots
// tables.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store over an open database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Create(ctx context.Context, data *Data) error {
	now := time.Now().UTC()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	raw, err := marshalContext(data.Context)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, context, version, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?) ON CONFLICT(id) DO NOTHING`,
		data.ID, raw, now, now)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Data, error) {
	var raw string
	data := &Data{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT context, version, created_at, updated_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&raw, &data.Version, &data.CreatedAt, &data.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	data.Context, err = unmarshalContext(raw)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLiteStore) Update(ctx context.Context, data *Data) error {
	raw, err := marshalContext(data.Context)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET context = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		raw, now, data.ID, data.Version)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, data.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("checking session: %w", err)
		}
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recovery_snapshots WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	raw, err := marshalContext(snap.Context)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recovery_snapshots (session_id, context, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET context = excluded.context, created_at = excluded.created_at`,
		snap.SessionID, raw, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	var raw string
	snap := &Snapshot{SessionID: sessionID}
	err := s.db.QueryRowContext(ctx,
		`SELECT context, created_at FROM recovery_snapshots WHERE session_id = ?`, sessionID,
	).Scan(&raw, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	snap.Context, err = unmarshalContext(raw)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func marshalContext(c *diagnostic.Context) (string, error) {
	if c == nil {
		c = &diagnostic.Context{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding conversation: %w", err)
	}
	return string(b), nil
}

func unmarshalContext(raw string) (*diagnostic.Context, error) {
	c := &diagnostic.Context{}
	if err := json.Unmarshal([]byte(raw), c); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	return c, nil
}
