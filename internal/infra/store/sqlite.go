package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	zlog "github.com/rs/zerolog/log"
)

// SQLite is a KV store backed by a single SQLite table.
type SQLite struct {
	conn    *sql.DB
	getStmt *sql.Stmt
	setStmt *sql.Stmt
}

// OpenSQLite opens (or creates) the database at path and ensures the kv table exists.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}

	conn, err := sql.Open("sqlite3", path+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			zlog.Warn().Msgf("failed to set pragma: pragma=%s error=%v", pragma, err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}

	s := &SQLite{conn: conn}
	if s.getStmt, err = conn.Prepare(`SELECT value FROM kv WHERE key = ?`); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to prepare statements")
	}
	if s.setStmt, err = conn.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`); err != nil {
		s.getStmt.Close()
		conn.Close()
		return nil, errors.Wrap(err, "failed to prepare statements")
	}

	zlog.Info().Msgf("database initialized: path=%s", path)
	return s, nil
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get %s", key)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	if _, err := s.setStmt.ExecContext(ctx, key, value); err != nil {
		return errors.Wrapf(err, "failed to set %s", key)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	s.getStmt.Close()
	s.setStmt.Close()
	return s.conn.Close()
}
