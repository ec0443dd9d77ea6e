package store

import (
	"context"
	"database/sql"
	"time"
)

// SQLite keeps collections in the collections table of the workspace
// database.
type SQLite struct {
	DB *sql.DB
}

func (s SQLite) Get(ctx context.Context, key Key) ([]byte, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT payload_json FROM collections WHERE key=?`, string(key)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrMissing
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (s SQLite) Put(ctx context.Context, key Key, payload []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO collections(key,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, string(key), string(payload), now)
	return err
}
