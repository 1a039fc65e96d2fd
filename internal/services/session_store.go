package services

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session store defaults.
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 10000
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Session is one citizen's portal state.
type Session struct {
	ID         string
	Controller *SearchController
	CreatedAt  time.Time

	lastAccess time.Time
	elem       *list.Element
}

// SessionStore keeps sessions in memory, ordered by last access.
// Sessions idle for longer than the TTL are evicted on the next Create or Get,
// and when the store is full Create evicts the least recently used session.
type SessionStore struct {
	ttl           time.Duration
	maxSessions   int
	newController func() *SearchController
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// recency holds *Session, most recently used at the front.
	recency *list.List
}

// NewSessionStore creates a store holding at most maxSessions sessions, each
// with a controller from newController.
func NewSessionStore(ttl time.Duration, maxSessions int, newController func() *SearchController) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &SessionStore{
		ttl:           ttl,
		maxSessions:   maxSessions,
		newController: newController,
		now:           time.Now,
		sessions:      make(map[string]*Session),
		recency:       list.New(),
	}
}

// Create starts a new session.
func (s *SessionStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)

	// Full: drop the least recently used.
	for len(s.sessions) >= s.maxSessions {
		s.remove(s.recency.Back().Value.(*Session))
	}

	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.newController(),
		CreatedAt:  now,
		lastAccess: now,
	}
	sess.elem = s.recency.PushFront(sess)
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and refreshes its idle timer.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.expire(now)

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastAccess = now
	s.recency.MoveToFront(sess.elem)
	return sess, nil
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// expire drops idle sessions from the back of the recency list and stops at the
// first live one, so it only touches sessions it removes.
// Must be called with s.mu held.
func (s *SessionStore) expire(now time.Time) {
	for e := s.recency.Back(); e != nil; e = s.recency.Back() {
		sess := e.Value.(*Session)
		if now.Sub(sess.lastAccess) <= s.ttl {
			return
		}
		s.remove(sess)
	}
}

// remove must be called with s.mu held.
func (s *SessionStore) remove(sess *Session) {
	s.recency.Remove(sess.elem)
	delete(s.sessions, sess.ID)
}
