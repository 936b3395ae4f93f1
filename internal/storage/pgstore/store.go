package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func New(db *pgxpool.Pool) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

func (s *Store) Get(ctx context.Context, userID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(
		ctx,
		`SELECT value FROM user_data WHERE user_id = $1 AND key = $2;`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, storage.NewError("get", userID, key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, userID, key string, value []byte) error {
	_, err := s.db.Exec(
		ctx,
		`INSERT INTO user_data (user_id, key, value, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;`,
		userID, key, value, s.now().UTC(),
	)
	if err != nil {
		return storage.NewError("set", userID, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID, prefix string) ([]string, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT key FROM user_data WHERE user_id = $1 AND starts_with(key, $2) ORDER BY key;`,
		userID, prefix,
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
	_, err := s.db.Exec(
		ctx,
		`DELETE FROM user_data WHERE user_id = $1 AND key = $2;`,
		userID, key,
	)
	if err != nil {
		return storage.NewError("delete", userID, key, err)
	}
	return nil
}
