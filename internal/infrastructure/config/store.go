package config

import "sync"

// Store holds the live config snapshot behind a lock, so control-plane
// mutations (spec 4.J's /control/* routes) take effect for new requests
// without disturbing in-flight ones (spec §5 "Config: read-mostly; atomic
// swap under a lock when reloaded").
type Store struct {
	mu  sync.RWMutex
	cur Config
}

// NewStore wraps an initial config snapshot.
func NewStore(initial Config) *Store {
	return &Store{cur: initial}
}

// Get returns the current snapshot by value.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// ApplyPatch overlays p onto the current snapshot and swaps it in.
func (s *Store) ApplyPatch(p Patch) Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = s.cur.Apply(p)
	return s.cur
}

// SetEnabled is a convenience wrapper for /control/enable and
// /control/disable.
func (s *Store) SetEnabled(enabled bool) {
	s.ApplyPatch(Patch{Gateway: &GatewayPatch{Enabled: &enabled}})
}
