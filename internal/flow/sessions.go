package flow

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"barbertry/internal/store"
)

// sessionState pairs the renderable session with the bookkeeping the
// controller needs: the one-in-flight generation slot and the epoch that
// stale async completions are checked against.
type sessionState struct {
	Session

	generating *semaphore.Weighted
	epoch      uint64
	updatedAt  time.Time
}

type sessionStore struct {
	mu sync.Mutex
	m  map[string]*sessionState
}

func newSessionStore() *sessionStore {
	return &sessionStore{m: make(map[string]*sessionState)}
}

func (s *sessionStore) create(id string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &sessionState{
		Session:    newSession(id),
		generating: semaphore.NewWeighted(1),
		updatedAt:  time.Now(),
	}
	s.m[id] = st
	return st.snapshot()
}

func (s *sessionStore) get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[id]
	if !ok {
		return Session{}, false
	}
	return st.snapshot(), true
}

// update applies fn under the lock and returns the resulting snapshot.
func (s *sessionStore) update(id string, fn func(*sessionState)) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[id]
	if !ok {
		return Session{}, false
	}

	fn(st)
	st.updatedAt = time.Now()
	return st.snapshot(), true
}

// prune drops sessions untouched for longer than ttl and reports how many.
func (s *sessionStore) prune(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	dropped := 0
	for id, st := range s.m {
		if st.updatedAt.Before(cutoff) {
			delete(s.m, id)
			dropped++
		}
	}
	return dropped
}

func (st *sessionState) snapshot() Session {
	out := st.Session
	if st.SavedImages != nil {
		out.SavedImages = make([]store.SavedImage, len(st.SavedImages))
		copy(out.SavedImages, st.SavedImages)
	}
	return out
}
