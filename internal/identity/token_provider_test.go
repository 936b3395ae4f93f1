package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionService struct {
	mu        sync.Mutex
	issued    int
	loggedOut []string
	failNext  error
}

func (f *fakeSessionService) next() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return "", err
	}
	f.issued++
	return fmt.Sprintf("token-%d", f.issued), nil
}

func (f *fakeSessionService) CreateAnonymous(context.Context, time.Time) (string, *Identity, error) {
	token, err := f.next()
	if err != nil {
		return "", nil, err
	}
	return token, &Identity{ID: "anon-" + token, Label: AnonymousLabel, Anonymous: true}, nil
}

func (f *fakeSessionService) Login(_ context.Context, creds Credentials, _ time.Time) (string, *Identity, error) {
	if creds.Password != "secret" {
		return "", nil, ErrWrongCredentials
	}
	token, err := f.next()
	if err != nil {
		return "", nil, err
	}
	return token, &Identity{ID: AccountUserID(creds.Email), Label: creds.Email}, nil
}

func (f *fakeSessionService) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func TestTokenProvider_Lifecycle(t *testing.T) {
	service := &fakeSessionService{}
	p := NewTokenProvider(service)
	ctx := context.Background()

	var changes []*Identity
	p.OnChange(func(_ context.Context, id *Identity) {
		// the provider lock is not held while listeners run
		_, _ = p.Current()
		changes = append(changes, id)
	})

	_, ok := p.Current()
	assert.False(t, ok)

	anon, err := p.SignInAnonymous(ctx)
	require.NoError(t, err)
	assert.True(t, anon.Anonymous)
	assert.Equal(t, "token-1", p.Token())

	// signing in anonymously again keeps the identity
	again, err := p.SignInAnonymous(ctx)
	require.NoError(t, err)
	assert.Same(t, anon, again)

	_, err = p.SignInWithCredentials(ctx, Credentials{Email: "jes@example.com", Password: "bad"})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, ErrWrongCredentials)
	assert.Equal(t, "token-1", p.Token())

	user, err := p.SignInWithCredentials(ctx, Credentials{Email: "jes@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jes@example.com", user.Label)
	assert.Equal(t, "token-2", p.Token())
	assert.Equal(t, []string{"token-1"}, service.loggedOut)

	require.NoError(t, p.SignOut(ctx))
	assert.Equal(t, "", p.Token())
	_, ok = p.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{"token-1", "token-2"}, service.loggedOut)

	// already signed out
	require.NoError(t, p.SignOut(ctx))

	require.Len(t, changes, 3)
	assert.Equal(t, anon, changes[0])
	assert.Equal(t, user, changes[1])
	assert.Nil(t, changes[2])
}

func TestTokenProvider_SignInFailure(t *testing.T) {
	service := &fakeSessionService{failNext: errors.New("redis down")}
	p := NewTokenProvider(service)

	called := false
	p.OnChange(func(context.Context, *Identity) { called = true })

	_, err := p.SignInAnonymous(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "sign in anonymous", authErr.Op)
	assert.False(t, called)
}

func TestRestoreTokenProvider(t *testing.T) {
	id := &Identity{ID: "u1", Label: AnonymousLabel, Anonymous: true}
	p := RestoreTokenProvider(&fakeSessionService{}, "kept", id)

	current, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, id, current)
	assert.Equal(t, "kept", p.Token())
}

func TestLocalProvider(t *testing.T) {
	p := NewLocalProvider()
	ctx := context.Background()

	var changes []*Identity
	p.OnChange(func(_ context.Context, id *Identity) {
		changes = append(changes, id)
	})

	id, err := p.SignInAnonymous(ctx)
	require.NoError(t, err)
	assert.Equal(t, LocalUserID, id.ID)
	assert.Equal(t, AnonymousLabel, id.Label)

	_, err = p.SignInAnonymous(ctx)
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx))
	require.NoError(t, p.SignOut(ctx))

	require.Len(t, changes, 2)
	assert.Equal(t, id, changes[0])
	assert.Nil(t, changes[1])
}
