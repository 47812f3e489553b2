package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnknownSession = errors.New("unknown or expired session")

const DefaultTTL = 12 * time.Hour

// TokenStore maps bearer tokens to users. redisx.TokenStore and MemoryTokens
// satisfy it.
type TokenStore interface {
	Save(ctx context.Context, token string, u auth.User, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (auth.User, bool, error)
	Delete(ctx context.Context, token string) error
}

type Option func(*Manager)

func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// Manager issues tokens and keeps the live sessions of this process. A token
// that outlives its process-local session gets a fresh, empty one.
type Manager struct {
	dir       auth.Directory
	tokens    TokenStore
	inventory Inventory
	newFlow   func() *checkout.Flow
	ttl       time.Duration
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	live map[string]*Session
}

func NewManager(dir auth.Directory, tokens TokenStore, inv Inventory, newFlow func() *checkout.Flow, opts ...Option) *Manager {
	m := &Manager{
		dir:       dir,
		tokens:    tokens,
		inventory: inv,
		newFlow:   newFlow,
		ttl:       DefaultTTL,
		log:       zap.NewNop(),
		now:       time.Now,
		live:      map[string]*Session{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Login(ctx context.Context, id, password string) (*Session, error) {
	u, err := m.dir.Authenticate(ctx, id, password)
	if err != nil {
		m.log.Info("login rejected", zap.String("employee_id", id))
		return nil, err
	}
	token := uuid.NewString()
	if err := m.tokens.Save(ctx, token, u, m.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s := newSession(token, u, m.inventory, m.newFlow(), m.now())
	m.mu.Lock()
	m.live[token] = s
	m.mu.Unlock()
	m.log.Info("login", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return s, nil
}

func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	u, ok, err := m.tokens.Lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		if s, live := m.live[token]; live {
			s.end()
			delete(m.live, token)
		}
		return nil, ErrUnknownSession
	}
	if s, live := m.live[token]; live && s.User.ID == u.ID {
		return s, nil
	}
	s := newSession(token, u, m.inventory, m.newFlow(), m.now())
	m.live[token] = s
	return s, nil
}

// Logout clears the session's cart, resets its checkout and revokes the token.
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	s, ok := m.live[token]
	delete(m.live, token)
	m.mu.Unlock()
	if ok {
		s.end()
		m.log.Info("logout", zap.String("user_id", s.User.ID))
	}
	return m.tokens.Delete(ctx, token)
}

type memToken struct {
	user    auth.User
	expires time.Time
}

// MemoryTokens is an in-process TokenStore.
type MemoryTokens struct {
	mu  sync.Mutex
	m   map[string]memToken
	now func() time.Time
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{m: map[string]memToken{}, now: time.Now}
}

func (t *MemoryTokens) Save(_ context.Context, token string, u auth.User, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[token] = memToken{user: u, expires: t.now().Add(ttl)}
	return nil
}

func (t *MemoryTokens) Lookup(_ context.Context, token string) (auth.User, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.m[token]
	if !ok {
		return auth.User{}, false, nil
	}
	if !t.now().Before(e.expires) {
		delete(t.m, token)
		return auth.User{}, false, nil
	}
	return e.user, true, nil
}

func (t *MemoryTokens) Delete(_ context.Context, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, token)
	return nil
}
