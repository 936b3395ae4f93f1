package identity

import (
	"context"
	"sync"
)

const LocalUserID = "local"

// LocalProvider is a single user Provider for the command line.
type LocalProvider struct {
	mu        sync.Mutex
	current   *Identity
	listeners listeners
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (p *LocalProvider) Current() (*Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != nil
}

func (p *LocalProvider) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners.add(fn)
}

func (p *LocalProvider) SignInAnonymous(ctx context.Context) (*Identity, error) {
	p.mu.Lock()
	if p.current != nil {
		id := p.current
		p.mu.Unlock()
		return id, nil
	}
	id := &Identity{ID: LocalUserID, Label: AnonymousLabel, Anonymous: true}
	p.current = id
	fns := p.listeners.snapshot()
	p.mu.Unlock()

	notify(ctx, fns, id)
	return id, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil
	}
	p.current = nil
	fns := p.listeners.snapshot()
	p.mu.Unlock()

	notify(ctx, fns, nil)
	return nil
}
