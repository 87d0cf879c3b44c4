package session

import (
	"sync"

	"github.com/veridex/faceline/internal/corerr"
)

// Store is the in-memory mapping of session-id → session record. Each
// record carries its own mutex so operations on different sessions never
// contend with each other; the store's own lock only ever guards the
// top-level map.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*Record
	recordMu map[string]*sync.Mutex
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		records:  make(map[string]*Record),
		recordMu: make(map[string]*sync.Mutex),
	}
}

// Put registers a newly created record.
func (s *Store) Put(r *Record) {
	s.mu.Lock()
	s.records[r.SessionID] = r
	s.recordMu[r.SessionID] = &sync.Mutex{}
	s.mu.Unlock()
}

// Get returns the record for id, or E_SESSION_NOT_FOUND.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, corerr.New(corerr.ESessionNotFound, "no session with id "+id)
	}
	return r, nil
}

// Lock acquires the per-session mutex for id, serializing every operation
// on that one session. Callers must call the returned unlock func exactly
// once. Unknown ids still return a valid no-op unlock paired with
// E_SESSION_NOT_FOUND so callers can use a single error-checking path.
func (s *Store) Lock(id string) (unlock func(), err error) {
	s.mu.RLock()
	mu, ok := s.recordMu[id]
	s.mu.RUnlock()
	if !ok {
		return func() {}, corerr.New(corerr.ESessionNotFound, "no session with id "+id)
	}
	mu.Lock()
	return mu.Unlock, nil
}

// Delete removes a session entirely (used by collaborator-driven retention
// sweeps; the core itself never calls this).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.records, id)
	delete(s.recordMu, id)
	s.mu.Unlock()
}
