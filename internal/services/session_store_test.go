package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/catastro/internal/logger"
)

func newTestStore(ttl time.Duration, maxSessions int, clock *time.Time) *SessionStore {
	store := NewSessionStore(ttl, maxSessions, func() *SearchController {
		return NewSearchController(new(MockCadastralService), logger.Nop())
	})
	store.now = func() time.Time { return *clock }
	return store
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newTestStore(time.Minute, 0, &clock)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	require.NotNil(t, sess.Controller)
	assert.Equal(t, StateIdle, sess.Controller.Snapshot().State)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	other := store.Create()
	assert.NotEqual(t, sess.ID, other.ID)
	assert.NotSame(t, sess.Controller, other.Controller)
	assert.Equal(t, 2, store.Len())
}

func TestSessionStore_UnknownSession(t *testing.T) {
	clock := time.Now()
	store := newTestStore(time.Minute, 0, &clock)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_IdleSessionsExpire(t *testing.T) {
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newTestStore(time.Minute, 0, &clock)

	idle := store.Create()
	active := store.Create()

	clock = clock.Add(45 * time.Second)
	_, err := store.Get(active.ID)
	require.NoError(t, err)

	clock = clock.Add(30 * time.Second)
	_, err = store.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(active.ID)
	assert.NoError(t, err, "access refreshes the idle timer")
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_Defaults(t *testing.T) {
	store := NewSessionStore(0, 0, nil)
	assert.Equal(t, DefaultSessionTTL, store.ttl)
	assert.Equal(t, DefaultMaxSessions, store.maxSessions)
}

func TestSessionStore_FullStoreEvictsLeastRecentlyUsed(t *testing.T) {
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newTestStore(time.Hour, 3, &clock)

	first := store.Create()
	second := store.Create()
	third := store.Create()

	clock = clock.Add(time.Second)
	_, err := store.Get(first.ID)
	require.NoError(t, err)

	fourth := store.Create()
	assert.Equal(t, 3, store.Len())

	_, err = store.Get(second.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "least recently used session is evicted")
	for _, sess := range []*Session{first, third, fourth} {
		_, err := store.Get(sess.ID)
		assert.NoError(t, err)
	}
}

func TestSessionStore_ManySessions(t *testing.T) {
	clock := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := newTestStore(time.Minute, 500, &clock)

	for i := 0; i < 20000; i++ {
		store.Create()
	}
	assert.Equal(t, 500, store.Len())
	assert.Equal(t, 500, store.recency.Len())

	clock = clock.Add(2 * time.Minute)
	kept := store.Create()
	assert.Equal(t, 1, store.Len(), "idle sessions expire together")

	got, err := store.Get(kept.ID)
	require.NoError(t, err)
	assert.Same(t, kept, got)
}
