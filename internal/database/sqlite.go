package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores documents in a single file, for one-host deployments.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens or creates the database at path.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Close() {
	s.conn.Close()
}

func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS documents (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`)
	return err
}

func (s *SQLite) GetDocument(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.conn.QueryRowContext(ctx, `SELECT data FROM documents WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *SQLite) PutDocument(ctx context.Context, key string, data []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO documents (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, key, string(data), time.Now().UTC())
	return err
}
