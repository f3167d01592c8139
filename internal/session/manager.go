package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"erp/portal/internal/backend"
	"erp/portal/internal/model"
	"erp/portal/internal/storage"
)

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Manager keeps one Session per portal session ID.
type Manager struct {
	store   storage.Store
	client  *backend.Client
	opts    Options
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewManager(store storage.Store, client *backend.Client, opts Options, idleTTL time.Duration) *Manager {
	return &Manager{
		store:    store,
		client:   client,
		opts:     opts,
		idleTTL:  idleTTL,
		now:      func() time.Time { return time.Now().UTC() },
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh portal session ID.
func NewID() string {
	return uuid.NewString()
}

// Open returns the Session for sid, creating and restoring it on first use.
// Concurrent callers for the same sid share one Session and all return after
// its restore has finished.
func (m *Manager) Open(ctx context.Context, sid string) *Session {
	m.mu.Lock()
	e, ok := m.sessions[sid]
	if !ok {
		e = &entry{
			sess: New(storage.Namespace(m.store, storage.SessionPrefix(sid)), m.client, m.opts),
		}
		m.sessions[sid] = e
	}
	e.lastSeen = m.now()
	m.mu.Unlock()

	e.sess.Restore(ctx)
	return e.sess
}

func (m *Manager) Forget(sid string) {
	m.mu.Lock()
	e, ok := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()
	if ok {
		e.sess.Close()
	}
}

// Sweep drops sessions not opened within the idle TTL and returns how many
// were dropped. Sessions with an attached unread stream stay. Persisted
// state is left alone.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}
	var idle []*Session
	m.mu.Lock()
	for sid, e := range m.sessions {
		if now.Sub(e.lastSeen) > m.idleTTL && !e.sess.streaming() {
			idle = append(idle, e.sess)
			delete(m.sessions, sid)
		}
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
	return len(idle)
}

// ActiveCount reports the number of authenticated sessions in memory.
func (m *Manager) ActiveCount() int {
	count := 0
	for _, sess := range m.snapshot() {
		if sess.Authenticated() {
			count++
		}
	}
	return count
}

// UnreadForUser returns the unread count held by any live session of userID.
func (m *Manager) UnreadForUser(userID model.ID) (int, bool) {
	best, found := 0, false
	for _, sess := range m.snapshot() {
		user, ok := sess.User()
		if !ok || user.ID != userID {
			continue
		}
		if n := sess.Unread(); !found || n > best {
			best = n
		}
		found = true
	}
	return best, found
}

func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()
	for _, e := range sessions {
		e.sess.Close()
	}
}

func (m *Manager) snapshot() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.sess)
	}
	return out
}
