package chat

import (
	"sync"
	"time"
)

type threadKey struct {
	owner string
	room  string
}

type registered struct {
	thread   *Thread
	lastUsed time.Time
}

// Registry holds the open threads of every portal session.
type Registry struct {
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	threads map[threadKey]*registered
}

func NewRegistry(idleTTL time.Duration) *Registry {
	return &Registry{
		idleTTL: idleTTL,
		now:     func() time.Time { return time.Now().UTC() },
		threads: make(map[threadKey]*registered),
	}
}

// Thread returns the thread of owner in room, creating it on first use.
func (r *Registry) Thread(owner, room string) *Thread {
	key := threadKey{owner: owner, room: room}
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.threads[key]
	if !ok {
		reg = &registered{thread: NewThread(room)}
		r.threads[key] = reg
	}
	reg.lastUsed = r.now()
	return reg.thread
}

// Drop forgets every thread of owner.
func (r *Registry) Drop(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.threads {
		if key.owner == owner {
			delete(r.threads, key)
		}
	}
}

// Sweep forgets threads unused for longer than the idle TTL.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for key, reg := range r.threads {
		if now.Sub(reg.lastUsed) > r.idleTTL {
			delete(r.threads, key)
			evicted++
		}
	}
	return evicted
}
