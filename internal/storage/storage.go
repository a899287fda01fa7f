package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/pairwise/internal/pairing"
	"github.com/patrickmn/go-cache"
)

// Entry holds one rater's session. Callers must hold the lock while using
// Session, since pairing sessions are single-threaded.
type Entry struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	session *pairing.Session
}

// NewEntry wraps a session under a fresh identifier
func NewEntry(session *pairing.Session) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		session:   session,
	}
}

// With runs fn while holding the entry's lock
func (e *Entry) With(fn func(s *pairing.Session) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// SessionStore keeps sessions in memory and drops ones left idle for longer
// than the configured TTL
type SessionStore struct {
	sessions *cache.Cache
}

// New creates a store. A ttl <= 0 keeps sessions until deleted.
func New(ttl time.Duration) *SessionStore {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
	}
	return &SessionStore{
		sessions: cache.New(expiration, cleanup),
	}
}

// OnEvicted registers a callback for sessions leaving the store, either
// deleted or expired after going idle
func (s *SessionStore) OnEvicted(fn func(entry *Entry)) {
	s.sessions.OnEvicted(func(_ string, v interface{}) {
		if entry, ok := v.(*Entry); ok {
			fn(entry)
		}
	})
}

// Get returns a session and refreshes its idle timer
func (s *SessionStore) Get(sessionID string) (*Entry, bool) {
	v, exists := s.sessions.Get(sessionID)
	if !exists {
		return nil, false
	}
	entry := v.(*Entry)
	if !s.touch(entry) {
		return nil, false
	}
	return entry, true
}

// touch restarts the entry's idle timer. It fails when the entry was deleted
// or expired in the meantime, so a closed session is never put back.
func (s *SessionStore) touch(entry *Entry) bool {
	return s.sessions.Replace(entry.ID, entry, cache.DefaultExpiration) == nil
}

func (s *SessionStore) Set(entry *Entry) {
	s.sessions.SetDefault(entry.ID, entry)
}

// GetAll returns the live sessions, oldest first
func (s *SessionStore) GetAll() []*Entry {
	items := s.sessions.Items()
	result := make([]*Entry, 0, len(items))
	for _, item := range items {
		result = append(result, item.Object.(*Entry))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.sessions.Delete(sessionID)
}

// Flush drops every session, running the eviction callback for each. Expired
// sessions the janitor has not collected yet are included.
func (s *SessionStore) Flush() {
	s.sessions.DeleteExpired()
	for id := range s.sessions.Items() {
		s.sessions.Delete(id)
	}
}
