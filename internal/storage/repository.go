package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"etiket/internal/history"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists history keys in the kv_store table.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

var _ history.KV = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Other processes (etiketctl, the worker) write the same file.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; the history is rewritten wholesale anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint { return r.schemaVersion }

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get implements history.KV
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get key %s: %w", key, err)
	}
	return value, true, nil
}

const upsertKV = `
	INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Put implements history.KV
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertKV, key, value); err != nil {
		return fmt.Errorf("put key %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Key saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

// Update implements history.KV. The read and the write share one IMMEDIATE
// transaction, so writers in other processes wait for it to finish.
func (r *SQLiteRepository) Update(ctx context.Context, key string, fn history.UpdateFunc) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("update key %s: %w", key, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin update of key %s: %w", key, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if _, err := conn.ExecContext(context.Background(), "ROLLBACK"); err != nil {
			slog.WarnContext(ctx, "Rollback of key update failed", "key", key, "error", err)
		}
	}()

	var old []byte
	found := true
	err = conn.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&old)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return fmt.Errorf("read key %s: %w", key, err)
	}

	next, err := fn(old, found)
	if err != nil {
		return err
	}
	if next == nil {
		_, err = conn.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	} else {
		_, err = conn.ExecContext(ctx, upsertKV, key, next)
	}
	if err != nil {
		return fmt.Errorf("write key %s: %w", key, err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit update of key %s: %w", key, err)
	}
	committed = true

	slog.DebugContext(ctx, "Key updated in SQLite", "key", key, "deleted", next == nil, "bytes", len(next))
	return nil
}

// Delete implements history.KV
func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}
