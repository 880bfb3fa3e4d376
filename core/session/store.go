package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/aiftbot/core/logger"
)

type entry struct {
	state     State
	createdAt time.Time
}

// Store is an in-memory, mutex-guarded session map keyed by user id.
// Expiry is applied when an entry is read; Sweep is optional.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]entry
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs a Store whose entries live for ttl after their last write.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Set overwrites the session for userID.
func (s *Store) Set(userID string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = entry{state: st, createdAt: s.now()}
}

// Get returns the live state for userID. A stale entry is deleted and reported absent.
func (s *Store) Get(userID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked(userID)
}

// Has reports whether userID has a live session, with the same expiry side effect as Get.
func (s *Store) Has(userID string) bool {
	_, ok := s.Get(userID)
	return ok
}

// Take returns the live state for userID and removes it in one step.
func (s *Store) Take(userID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.liveLocked(userID)
	if ok {
		delete(s.sessions, userID)
	}
	return st, ok
}

// TakeKind is Take restricted to states of the given kind; other states are
// left in place.
func (s *Store) TakeKind(userID string, kind Kind) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.liveLocked(userID)
	if !ok || st.Kind != kind {
		return State{}, false
	}
	delete(s.sessions, userID)
	return st, true
}

// Clear removes any session for userID.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of stored entries, including not yet evicted stale ones.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts every stale entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if s.staleAt(e, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) liveLocked(userID string) (State, bool) {
	e, ok := s.sessions[userID]
	if !ok {
		return State{}, false
	}
	if s.staleAt(e, s.now()) {
		delete(s.sessions, userID)
		logger.Debug(context.Background(), "session", "session.expired",
			slog.String("state", e.state.Label()),
			slog.Duration("age", s.now().Sub(e.createdAt)),
		)
		return State{}, false
	}
	return e.state, true
}

func (s *Store) staleAt(e entry, now time.Time) bool {
	return now.Sub(e.createdAt) > s.ttl
}
