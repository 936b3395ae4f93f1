package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/davidjes1/fitnesstracker/internal/storage"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "fitness-tracker||users"

// Store keeps each user's data in a single redis hash, one field per key.
type Store struct {
	redisClient *redis.Client
}

func New(redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
	}
}

func UserDataKey(userID string) string {
	return fmt.Sprintf("%s||%s||data", keyPrefix, userID)
}

func (s *Store) Get(ctx context.Context, userID, key string) ([]byte, error) {
	value, err := s.redisClient.HGet(ctx, UserDataKey(userID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, storage.NewError("get", userID, key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, userID, key string, value []byte) error {
	if err := s.redisClient.HSet(ctx, UserDataKey(userID), key, string(value)).Err(); err != nil {
		return storage.NewError("set", userID, key, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID, prefix string) ([]string, error) {
	fields, err := s.redisClient.HKeys(ctx, UserDataKey(userID)).Result()
	if err != nil {
		return nil, storage.NewError("list", userID, prefix, err)
	}

	keys := []string{}
	for _, f := range fields {
		if strings.HasPrefix(f, prefix) {
			keys = append(keys, f)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, userID, key string) error {
	if err := s.redisClient.HDel(ctx, UserDataKey(userID), key).Err(); err != nil {
		return storage.NewError("delete", userID, key, err)
	}
	return nil
}
