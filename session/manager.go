package session

import (
	"context"
	"fmt"
	"sync"

	"lyricsync-api-go/logcolors"
	"lyricsync-api-go/versions"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Manager loads a session's History, applies one operation and writes it back.
// Operations on the same session are serialized; different sessions run in parallel.
type Manager struct {
	store *RedisStore
	opts  []versions.Option

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a manager; opts are passed to every History it builds
func NewManager(store *RedisStore, opts ...versions.Option) *Manager {
	return &Manager{
		store: store,
		opts:  opts,
		locks: make(map[string]*sessionLock),
	}
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

func (m *Manager) options(p versions.Persister) []versions.Option {
	opts := make([]versions.Option, 0, len(m.opts)+1)
	opts = append(opts, m.opts...)
	return append(opts, versions.WithPersister(p))
}

// failurePersister forwards saves and remembers the first failure, since
// History only logs persistence errors
type failurePersister struct {
	next versions.Persister
	err  error
}

func (p *failurePersister) Save(snap versions.Snapshot) error {
	err := p.next.Save(snap)
	if err != nil && p.err == nil {
		p.err = err
	}
	return err
}

// Create starts a new session for original and stores its first snapshot
func (m *Manager) Create(ctx context.Context, original string) (string, versions.Snapshot, error) {
	id := uuid.NewString()
	h := versions.New(original, m.options(m.store.Persister(ctx, id))...)

	snap := h.Snapshot()
	if err := m.store.Save(ctx, id, snap); err != nil {
		return "", versions.Snapshot{}, err
	}

	log.Infof("%s Created session %s", logcolors.LogSession, logcolors.Client(id))
	return id, snap, nil
}

// Get returns the stored snapshot of a session
func (m *Manager) Get(ctx context.Context, id string) (versions.Snapshot, error) {
	return m.store.Load(ctx, id)
}

// Update rehydrates session id, runs fn against it and returns the resulting
// snapshot. Mutations inside fn persist themselves; a failed write is returned
// ahead of fn's own error.
func (m *Manager) Update(ctx context.Context, id string, fn func(h *versions.History) error) (versions.Snapshot, error) {
	unlock := m.lock(id)
	defer unlock()

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return versions.Snapshot{}, err
	}

	p := &failurePersister{next: m.store.Persister(ctx, id)}
	h := versions.Restore(snap, m.options(p)...)
	fnErr := fn(h)
	if p.err != nil {
		return h.Snapshot(), fmt.Errorf("persist session %s: %w", id, p.err)
	}
	return h.Snapshot(), fnErr
}

// Delete removes a session
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.lock(id)
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	log.Infof("%s Deleted session %s", logcolors.LogSession, logcolors.Client(id))
	return nil
}
