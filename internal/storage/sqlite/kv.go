package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hongminglow/finanzas-be/internal/storage"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

var _ storage.KeyValueStore = (*KV)(nil)

// KV keeps key-value pairs in a single sqlite table so they survive restarts.
type KV struct {
	conn *sql.DB
}

// NewKV opens the database at path and creates the table if needed.
// Use ":memory:" for a throwaway store.
func NewKV(ctx context.Context, path string) (*KV, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to ":memory:" is a separate database
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	kv := &KV{conn: conn}
	if err := kv.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return kv, nil
}

// Close releases the database handle.
func (k *KV) Close() error {
	return k.conn.Close()
}

func (k *KV) migrate(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := k.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := k.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (k *KV) PutAll(ctx context.Context, values map[string]string) error {
	tx, err := k.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range values {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (k *KV) Clear(ctx context.Context) error {
	_, err := k.conn.ExecContext(ctx, "DELETE FROM kv")
	return err
}
