// Package session holds the identity of one portal session: the backend
// user and bearer token, the unread notification count, and the backend
// client configured for that token.
//
// A Session has two states. It is unauthenticated (no user, no token) or
// authenticated (both set). Login and Restore move it to authenticated,
// Logout moves it back. Both survive restarts through the persistence
// facility under the userSession and userToken keys.
package session

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"erp/portal/internal/backend"
	"erp/portal/internal/jobs"
	"erp/portal/internal/model"
	"erp/portal/internal/storage"
)

type Options struct {
	MediaBaseURL      string
	PlaceholderAvatar string
	// PollInterval <= 0 disables the unread poller.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// State is a point-in-time copy of a session.
type State struct {
	Authenticated bool        `json:"authenticated"`
	Loading       bool        `json:"loading"`
	User          *model.User `json:"user"`
	Token         string      `json:"-"`
	UnreadCount   int         `json:"unread_count"`
}

type Session struct {
	store storage.Store
	anon  *backend.Client
	opts  Options

	restoreOnce sync.Once

	mu         sync.RWMutex
	client     *backend.Client
	user       *model.User
	token      string
	unread     int
	loading    bool
	generation uint64
	stopPoll   context.CancelFunc
	subs       map[int]chan int
	nextSub    int
	closed     bool
}

func New(store storage.Store, client *backend.Client, opts Options) *Session {
	return &Session{
		store:   store,
		anon:    client.WithToken(""),
		client:  client.WithToken(""),
		opts:    opts,
		loading: true,
		subs:    make(map[int]chan int),
	}
}

// Login stores user and token in memory and in the persistence facility and
// switches the session client to the token. Persistence failures are logged;
// the in-memory state is updated regardless.
func (s *Session) Login(ctx context.Context, user model.User, token string) {
	s.mu.Lock()
	s.user = &user
	s.token = token
	s.client = s.anon.WithToken(token)
	s.loading = false
	s.generation++
	s.mu.Unlock()

	s.persist(ctx, user, token)
	s.tokenChanged(ctx)
}

// Logout clears the session and its persisted keys. Calling it on an
// unauthenticated session is a no-op apart from the storage delete.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.unread = 0
	s.client = s.anon
	s.generation++
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.publishLocked(0)
	s.mu.Unlock()

	if err := s.store.Remove(ctx, storage.KeyUserSession, storage.KeyUserToken); err != nil {
		log.Printf("session storage remove failed: %v", err)
	}
}

// Restore runs once per session. When both persisted keys are present the
// session becomes authenticated without contacting the backend; the profile
// refresh that follows may.
func (s *Session) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		restored := s.restore(ctx)
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		if restored {
			s.tokenChanged(ctx)
		}
	})
}

// restoreTimeout bounds the storage reads of Restore. They ignore the
// caller's cancellation because Restore never runs a second time.
const restoreTimeout = 5 * time.Second

func (s *Session) restore(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), restoreTimeout)
	defer cancel()

	rawUser, okUser, err := s.store.Get(ctx, storage.KeyUserSession)
	if err != nil {
		log.Printf("session restore failed: %v", err)
		return false
	}
	token, okToken, err := s.store.Get(ctx, storage.KeyUserToken)
	if err != nil {
		log.Printf("session restore failed: %v", err)
		return false
	}
	if !okUser || !okToken || token == "" {
		return false
	}
	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Printf("session restore: stored user unreadable: %v", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		return false
	}
	s.user = &user
	s.token = token
	s.client = s.anon.WithToken(token)
	s.generation++
	return true
}

func (s *Session) tokenChanged(ctx context.Context) {
	s.RefreshProfile(ctx)
	s.startPolling()
}

// RefreshProfile fetches the user's profile and merges it into the session
// user. Failures are logged and the current user is kept.
func (s *Session) RefreshProfile(ctx context.Context) {
	s.mu.RLock()
	user := s.user
	client := s.client
	generation := s.generation
	s.mu.RUnlock()
	if user == nil || client.Token() == "" {
		return
	}

	profile, err := client.GetProfile(ctx, user.ID)
	if err != nil {
		log.Printf("profile refresh failed: %v", err)
		return
	}

	s.mu.Lock()
	if s.generation != generation || s.user == nil {
		s.mu.Unlock()
		return
	}
	merged := s.user.Merge(profile)
	s.user = &merged
	token := s.token
	s.mu.Unlock()

	s.persist(ctx, merged, token)
}

// UpdateUser replaces the session user after a profile edit and persists it.
func (s *Session) UpdateUser(ctx context.Context, profile model.Profile) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	merged := s.user.Merge(profile)
	s.user = &merged
	token := s.token
	s.mu.Unlock()
	s.persist(ctx, merged, token)
}

func (s *Session) persist(ctx context.Context, user model.User, token string) {
	encoded, err := json.Marshal(user)
	if err != nil {
		log.Printf("session persist failed: %v", err)
		return
	}
	if err := s.store.Set(ctx, storage.KeyUserSession, string(encoded)); err != nil {
		log.Printf("session persist failed: %v", err)
	}
	if err := s.store.Set(ctx, storage.KeyUserToken, token); err != nil {
		log.Printf("session persist failed: %v", err)
	}
}

func (s *Session) startPolling() {
	if s.opts.PollInterval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.user == nil {
		return
	}
	if s.stopPoll != nil {
		s.stopPoll()
	}
	pollCtx, cancel := context.WithCancel(context.Background())
	s.stopPoll = cancel
	client := s.client
	generation := s.generation
	jobs.StartUnreadPoll(pollCtx, s.opts.PollInterval, s.opts.PollTimeout, client.UnreadCount, func(count int) {
		s.setUnreadFor(generation, count)
	})
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := State{
		Authenticated: s.user != nil && s.token != "",
		Loading:       s.loading,
		Token:         s.token,
		UnreadCount:   s.unread,
	}
	if s.user != nil {
		user := *s.user
		state.User = &user
	}
	return state
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// User returns a copy of the session user.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Client returns the backend client for the current token.
func (s *Session) Client() *backend.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Store returns the session-scoped persistence facility.
func (s *Session) Store() storage.Store {
	return s.store
}

func (s *Session) ProfileImageURL() string {
	s.mu.RLock()
	path := ""
	if s.user != nil {
		path = s.user.ProfileImageURL
	}
	s.mu.RUnlock()
	return AvatarURL(path, s.opts.MediaBaseURL, s.opts.PlaceholderAvatar)
}

// AvatarURL resolves a stored profile image path. Paths already starting
// with http or file are returned as is.
func AvatarURL(path, mediaBaseURL, placeholder string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return placeholder
	}
	if strings.HasPrefix(path, "http") || strings.HasPrefix(path, "file") {
		return path
	}
	return strings.TrimRight(mediaBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (s *Session) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

func (s *Session) SetUnread(count int) {
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = count
	s.publishLocked(count)
}

func (s *Session) setUnreadFor(generation uint64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation || s.user == nil {
		return
	}
	s.unread = count
	s.publishLocked(count)
}

// Subscribe streams unread count changes. The channel starts with the
// current value and always holds the latest one; a slow reader skips
// intermediate values. cancel releases the subscription.
func (s *Session) Subscribe() (<-chan int, func()) {
	ch := make(chan int, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.unread
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			if existing, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(existing)
			}
			s.mu.Unlock()
		})
	}
}

// streaming reports whether any subscriber is attached.
func (s *Session) streaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs) > 0
}

func (s *Session) publishLocked(count int) {
	for _, ch := range s.subs {
		select {
		case ch <- count:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- count:
			default:
			}
		}
	}
}

// Close stops the poller and ends all subscriptions. Persisted state is
// kept, so a later Restore on a new Session picks it up again.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
