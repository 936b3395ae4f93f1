package storage

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=storage.go -destination=storage_mock.go -package=storage

var ErrKeyNotFound = errors.New("key not found")

// Store keeps opaque values under (user id, key). All operations are
// scoped to a single user.
type Store interface {
	// Get returns ErrKeyNotFound when nothing is stored under key.
	Get(ctx context.Context, userID, key string) ([]byte, error)
	Set(ctx context.Context, userID, key string, value []byte) error
	// List returns the user's keys starting with prefix, sorted.
	List(ctx context.Context, userID, prefix string) ([]string, error)
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, userID, key string) error
}

// Error is a failed backend call.
type Error struct {
	Op     string
	UserID string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s [%s/%s]: %s", e.Op, e.UserID, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op, userID, key string, err error) *Error {
	return &Error{Op: op, UserID: userID, Key: key, Err: err}
}

// wrap leaves nil, ErrKeyNotFound and *Error values untouched.
func wrap(op, userID, key string, err error) error {
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		return err
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return err
	}
	return NewError(op, userID, key, err)
}
