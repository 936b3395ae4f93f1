package identity

import (
	"context"
	"errors"
	"fmt"
)

const AnonymousLabel = "anonymous"

var (
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
)

// Identity is who the tracked data belongs to. Label is the account
// email, or AnonymousLabel.
type Identity struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Anonymous bool   `json:"anonymous"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthError is a failed sign-in or sign-out.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ChangeFunc is called with the new identity, nil after sign out.
type ChangeFunc func(ctx context.Context, id *Identity)

type Provider interface {
	Current() (*Identity, bool)
	OnChange(fn ChangeFunc)
	SignInAnonymous(ctx context.Context) (*Identity, error)
	SignOut(ctx context.Context) error
}

// CredentialsProvider is a Provider that also knows email accounts.
type CredentialsProvider interface {
	Provider
	SignInWithCredentials(ctx context.Context, creds Credentials) (*Identity, error)
}

// listeners is embedded by providers. Callbacks run in registration
// order, never while the provider holds its own lock.
type listeners struct {
	fns []ChangeFunc
}

func (l *listeners) add(fn ChangeFunc) {
	l.fns = append(l.fns, fn)
}

func (l *listeners) snapshot() []ChangeFunc {
	return append([]ChangeFunc(nil), l.fns...)
}

func notify(ctx context.Context, fns []ChangeFunc, id *Identity) {
	for _, fn := range fns {
		fn(ctx, id)
	}
}
