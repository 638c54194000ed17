package family

import (
	// Go Internal Packages
	"sync"
	"time"
)

// Sessions maps a client enrollment session to its batcher. Idle sessions are
// dropped by Sweep.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	batcher  *Batcher
	lastSeen time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{entries: make(map[string]*entry), ttl: ttl, now: time.Now}
}

func (s *Sessions) Get(id string) *Batcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &entry{batcher: NewBatcher()}
		s.entries[id] = e
	}
	e.lastSeen = s.now()
	return e.batcher
}

func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Sweep removes sessions idle for longer than the ttl and returns how many went.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
