package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/identity"

	log "github.com/sirupsen/logrus"
)

type identityService interface {
	CreateAnonymous(ctx context.Context, createdAt time.Time) (string, *identity.Identity, error)
	Login(ctx context.Context, creds identity.Credentials, createdAt time.Time) (string, *identity.Identity, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*identity.Identity, error)
	ScanAndClean(ctx context.Context) int
}

type entry struct {
	session  *Session
	provider *identity.TokenProvider
	token    string
	lastSeen time.Time
}

// Manager keeps one Session per sign-in token. Sessions missing from
// memory (e.g. after a restart) are restored from the identity service.
type Manager struct {
	service identityService
	params  Params
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager uses params for every session it creates; params.Provider
// is ignored. Sessions unused for idleTTL are dropped from memory.
func NewManager(service identityService, params Params, idleTTL time.Duration) *Manager {
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Manager{
		service:  service,
		params:   params,
		idleTTL:  idleTTL,
		sessions: make(map[string]*entry),
	}
}

func (m *Manager) newEntry(ctx context.Context, provider *identity.TokenProvider) *entry {
	params := m.params
	params.Provider = provider

	e := &entry{
		provider: provider,
		token:    provider.Token(),
		lastSeen: m.params.Now(),
	}
	e.session = New(ctx, params)
	// registered after the session's own listener, so the session is
	// already reloaded when the token is re-keyed
	provider.OnChange(func(_ context.Context, id *identity.Identity) {
		m.tokenChanged(e, id)
	})
	return e
}

func (m *Manager) tokenChanged(e *entry, id *identity.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions[e.token] == e {
		delete(m.sessions, e.token)
	}
	if id == nil {
		e.session.Close()
		m.updateGauge()
		return
	}
	e.token = e.provider.Token()
	e.lastSeen = m.params.Now()
	m.sessions[e.token] = e
	m.updateGauge()
}

func (m *Manager) updateGauge() {
	if m.params.Metrics != nil {
		m.params.Metrics.GaugeActiveSessions.Set(float64(len(m.sessions)))
	}
}

// SignInAnonymous starts a new anonymous session and returns its token.
func (m *Manager) SignInAnonymous(ctx context.Context) (string, View, error) {
	e := m.newEntry(ctx, identity.NewTokenProvider(m.service))
	view, err := e.session.SignIn(ctx)
	if err != nil {
		e.session.Close()
		return "", View{}, err
	}
	return e.provider.Token(), view, nil
}

// SignInWithCredentials signs in on the session of currentToken when it
// is valid, otherwise on a new one. The returned token replaces currentToken.
func (m *Manager) SignInWithCredentials(ctx context.Context, currentToken string, creds identity.Credentials) (string, View, error) {
	var e *entry
	if currentToken != "" {
		if existing, err := m.get(ctx, currentToken); err == nil {
			e = existing
		}
	}
	fresh := e == nil
	if fresh {
		e = m.newEntry(ctx, identity.NewTokenProvider(m.service))
	}

	view, err := e.session.SignInWithCredentials(ctx, creds)
	if err != nil {
		if fresh {
			e.session.Close()
		}
		return "", View{}, err
	}
	return e.provider.Token(), view, nil
}

func (m *Manager) SignOut(ctx context.Context, token string) error {
	e, err := m.get(ctx, token)
	if err != nil {
		return err
	}
	return e.session.SignOut(ctx)
}

// Get returns the session signed in under token.
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	e, err := m.get(ctx, token)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

func (m *Manager) get(ctx context.Context, token string) (*entry, error) {
	if token == "" {
		return nil, identity.ErrSessionNotFound
	}

	m.mu.Lock()
	if e, ok := m.sessions[token]; ok {
		e.lastSeen = m.params.Now()
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	id, err := m.service.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	restored := m.newEntry(ctx, identity.RestoreTokenProvider(m.service, token, id))

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[token]; ok {
		// restored concurrently by another request
		restored.session.Close()
		return e, nil
	}
	m.sessions[token] = restored
	m.updateGauge()
	log.Debugf("session manager: restored session for user %s", id.ID)
	return restored, nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep cleans expired sign-ins and drops idle or invalid sessions from
// memory. Returns the number of sessions dropped.
func (m *Manager) Sweep(ctx context.Context) int {
	m.service.ScanAndClean(ctx)

	m.mu.Lock()
	candidates := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		candidates = append(candidates, e)
	}
	m.mu.Unlock()

	now := m.params.Now()
	dropped := 0
	for _, e := range candidates {
		drop := m.idleTTL > 0 && now.Sub(e.lastSeen) > m.idleTTL
		if !drop {
			_, err := m.service.Resolve(ctx, e.token)
			drop = errors.Is(err, identity.ErrSessionNotFound) || errors.Is(err, identity.ErrSessionExpired)
		}
		if !drop {
			continue
		}

		m.mu.Lock()
		if m.sessions[e.token] == e {
			delete(m.sessions, e.token)
			e.session.Close()
			dropped++
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.updateGauge()
	m.mu.Unlock()
	return dropped
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugln("session sweeper stopped")
			return
		case <-ticker.C:
			if dropped := m.Sweep(ctx); dropped > 0 {
				log.Infof("session sweeper: dropped %d sessions", dropped)
			}
		}
	}
}
