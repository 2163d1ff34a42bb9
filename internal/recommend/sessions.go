package recommend

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle listening session is kept before
// its skip state is discarded.
const DefaultSessionTTL = 4 * time.Hour

// Session is the per-listening-session mutable state: the skip penalty
// weights accumulated since the session started.
type Session struct {
	ID        string
	Skips     *SkipPenaltyTracker
	CreatedAt time.Time

	lastSeen time.Time
}

// SessionStore manages listening sessions in memory. The caller owns the
// lifecycle: sessions are created on first use and discarded on End or
// after the idle TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factor   float64
	floor    float64
	now      func() time.Time
}

// NewSessionStore creates a session store. A non-positive ttl falls back
// to DefaultSessionTTL. factor and floor configure each session's
// SkipPenaltyTracker.
func NewSessionStore(ttl time.Duration, factor, floor float64) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factor:   factor,
		floor:    floor,
		now:      time.Now,
	}
}

// GetOrCreate returns the session with the given id, creating it if
// needed. An empty id mints a fresh session with a generated id.
func (s *SessionStore) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeLocked(now)

	if id == "" {
		id = uuid.New().String()
	}

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{
			ID:        id,
			Skips:     NewSkipPenaltyTracker(s.factor, s.floor),
			CreatedAt: now,
		}
		s.sessions[id] = sess
	}
	sess.lastSeen = now
	return sess
}

// End discards the session and its skip state.
func (s *SessionStore) End(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked(s.now())
	return len(s.sessions)
}

// purgeLocked drops sessions idle for longer than the TTL. Callers must
// hold s.mu.
func (s *SessionStore) purgeLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
