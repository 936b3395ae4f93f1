package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single file backend for the local CLI.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init tables: %w", err)
	}
	return s, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_data (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, key)
		);
	`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, userID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(
		ctx,
		`SELECT value FROM user_data WHERE user_id = ? AND key = ?`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, storage.NewError("get", userID, key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, userID, key string, value []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO user_data (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		userID, key, value, s.now().UTC(),
	)
	if err != nil {
		return storage.NewError("set", userID, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key FROM user_data WHERE user_id = ? AND substr(key, 1, length(?)) = ? ORDER BY key`,
		userID, prefix, prefix,
	)
	if err != nil {
		return nil, storage.NewError("list", userID, prefix, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, storage.NewError("list", userID, prefix, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewError("list", userID, prefix, err)
	}
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, userID, key string) error {
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM user_data WHERE user_id = ? AND key = ?`,
		userID, key,
	); err != nil {
		return storage.NewError("delete", userID, key, err)
	}
	return nil
}
