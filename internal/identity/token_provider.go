package identity

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type sessionService interface {
	CreateAnonymous(ctx context.Context, createdAt time.Time) (string, *Identity, error)
	Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, *Identity, error)
	Logout(ctx context.Context, token string) error
}

// TokenProvider is the Provider behind one API client. Its token changes
// on every sign-in.
type TokenProvider struct {
	service sessionService
	now     func() time.Time

	mu        sync.Mutex
	token     string
	current   *Identity
	listeners listeners
}

func NewTokenProvider(service sessionService) *TokenProvider {
	return &TokenProvider{
		service: service,
		now:     time.Now,
	}
}

// RestoreTokenProvider picks up an existing session, e.g. after a restart.
func RestoreTokenProvider(service sessionService, token string, id *Identity) *TokenProvider {
	p := NewTokenProvider(service)
	p.token = token
	p.current = id
	return p
}

func (p *TokenProvider) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *TokenProvider) Current() (*Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != nil
}

func (p *TokenProvider) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners.add(fn)
}

// SignInAnonymous keeps an already signed in identity.
func (p *TokenProvider) SignInAnonymous(ctx context.Context) (*Identity, error) {
	if id, ok := p.Current(); ok {
		return id, nil
	}

	token, id, err := p.service.CreateAnonymous(ctx, p.now())
	if err != nil {
		return nil, &AuthError{Op: "sign in anonymous", Err: err}
	}
	p.swap(ctx, token, id)
	return id, nil
}

func (p *TokenProvider) SignInWithCredentials(ctx context.Context, creds Credentials) (*Identity, error) {
	token, id, err := p.service.Login(ctx, creds, p.now())
	if err != nil {
		return nil, &AuthError{Op: "sign in", Err: err}
	}
	p.swap(ctx, token, id)
	return id, nil
}

func (p *TokenProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()

	if token == "" {
		return nil
	}
	if err := p.service.Logout(ctx, token); err != nil {
		return &AuthError{Op: "sign out", Err: err}
	}
	p.swap(ctx, "", nil)
	return nil
}

// swap replaces the session, dropping the previous one from the service.
func (p *TokenProvider) swap(ctx context.Context, token string, id *Identity) {
	p.mu.Lock()
	oldToken := p.token
	p.token = token
	p.current = id
	fns := p.listeners.snapshot()
	p.mu.Unlock()

	if oldToken != "" && oldToken != token && id != nil {
		if err := p.service.Logout(ctx, oldToken); err != nil {
			// the sweep removes it once expired
			log.Warnf("identity: drop previous session: %s", err)
		}
	}
	notify(ctx, fns, id)
}
