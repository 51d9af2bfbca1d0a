// Package session keeps per-browser dashboard state in memory.
//
// A session holds the provider keys and the last widget values for one
// browser. Nothing here is ever persisted; a process restart forgets all
// sessions and new ones are seeded from the environment again.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stonk-news/models"
)

// Session is a snapshot of one browser's state
type Session struct {
	ID           string
	Credentials  models.Credentials
	Period       models.Period
	TickerInput  string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Store is a concurrency-safe in-memory session map.
// Callers only ever receive copies.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	seed        models.Credentials
	idleTimeout time.Duration
	now         func() time.Time
}

// NewStore creates a store whose new sessions start with the seed credentials
func NewStore(seed models.Credentials, idleTimeout time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		seed:        seed,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the live session with id and refreshes its activity time
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return Session{}, false
	}
	sess.LastActivity = s.now()
	return *sess, true
}

// GetOrCreate returns the live session with id, or a freshly seeded one under a new id
func (s *Store) GetOrCreate(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.live(id); ok {
		sess.LastActivity = s.now()
		return *sess, false
	}

	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		Credentials:  s.seed,
		Period:       models.DefaultPeriod,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	return *sess, true
}

// Update applies fn to the live session with id and returns the result.
// It reports false when the session does not exist or has expired.
func (s *Store) Update(id string, fn func(*Session)) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.live(id)
	if !ok {
		return Session{}, false
	}
	fn(sess)
	sess.ID = id
	sess.LastActivity = s.now()
	return *sess, true
}

// Delete forgets a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep evicts every expired session and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions held, expired or not
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// live must be called with mu held
func (s *Store) live(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, false
	}
	return sess, true
}

func (s *Store) expired(sess *Session) bool {
	return s.idleTimeout > 0 && s.now().Sub(sess.LastActivity) > s.idleTimeout
}
