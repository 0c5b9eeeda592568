package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document keys of the two persisted records.
const (
	SettingsKey = "muadhin_settings"
	CityKey     = "muadhin_city"
)

// Store keeps flat JSON documents by key. A missing document is returned as
// nil data with a nil error.
type Store interface {
	GetDocument(ctx context.Context, key string) ([]byte, error)
	PutDocument(ctx context.Context, key string, data []byte) error
	Close()
}

// Open returns Postgres when databaseURL is set and SQLite otherwise, with
// the schema migrated.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, error) {
	if databaseURL != "" {
		db, err := New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return db, nil
	}
	s, err := NewSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate creates the schema if it doesn't exist.
func (db *DB) Migrate(ctx context.Context) error {
	sql := `
	CREATE TABLE IF NOT EXISTS documents (
		key         TEXT PRIMARY KEY,
		data        JSONB NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := db.Pool.Exec(ctx, sql)
	return err
}

func (db *DB) GetDocument(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT data::text FROM documents WHERE key = $1
	`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// PutDocument replaces the document. Postgres rejects invalid JSON, which
// callers never produce.
func (db *DB) PutDocument(ctx context.Context, key string, data []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO documents (key, data, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, key, string(data))
	return err
}
