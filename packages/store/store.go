// Package store implements the two-tier key-value context shared between
// requests fired through one dispatch config. The session tier is scoped to
// a single batch unless explicitly persisted; the global tier exists only
// when attached and lives as long as the config that owns it.
package store

import (
	"errors"
	"sync"
)

// Tier names one of the two context scopes.
type Tier int

const (
	TierSession Tier = iota
	TierGlobal
)

func (t Tier) String() string {
	switch t {
	case TierSession:
		return "session"
	case TierGlobal:
		return "global"
	}
	return "unknown"
}

// ErrNoGlobalTier is returned when a write targets the global tier on a
// store that never had one attached. This is a configuration mistake, not a
// transient condition: the write is rejected and nothing is stored.
var ErrNoGlobalTier = errors.New("no global context attached to this config")

// Reader is the read-only view handed to deferred computations (pacing,
// retry-delay, capture and resolve functions). Reads follow
// session-then-global precedence.
type Reader interface {
	Lookup(key string) (any, bool)
}

// Store holds the two tiers. All methods are safe for concurrent use by
// in-flight requests; writes are last-write-wins.
type Store struct {
	mu      sync.RWMutex
	global  map[string]any // nil until a global tier is attached
	session map[string]any
}

func New() *Store {
	return &Store{
		session: make(map[string]any),
	}
}

// AttachGlobal creates the global tier. Attaching twice is a no-op; existing
// global values survive.
func (s *Store) AttachGlobal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.global == nil {
		s.global = make(map[string]any)
	}
}

func (s *Store) HasGlobal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global != nil
}

// ResetSession replaces the session tier with a fresh empty one. Called at
// the start of each batch unless the session was explicitly persisted.
func (s *Store) ResetSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = make(map[string]any)
}

// Lookup returns the session value for key if present, falling back to the
// global tier. The second return reports whether any value was found.
func (s *Store) Lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.session[key]; ok {
		return v, true
	}
	if s.global != nil {
		if v, ok := s.global[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupIn reads from a single tier without falling back.
func (s *Store) LookupIn(tier Tier, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch tier {
	case TierGlobal:
		if s.global == nil {
			return nil, false
		}
		v, ok := s.global[key]
		return v, ok
	default:
		v, ok := s.session[key]
		return v, ok
	}
}

// Set writes a value into the named tier. Writing to the global tier when
// none is attached fails with ErrNoGlobalTier and stores nothing.
func (s *Store) Set(key string, value any, tier Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch tier {
	case TierGlobal:
		if s.global == nil {
			return ErrNoGlobalTier
		}
		s.global[key] = value
	default:
		s.session[key] = value
	}
	return nil
}

// tierReader is satisfied by readers that expose per-tier access, letting
// typed reads apply precedence per tier instead of per key.
type tierReader interface {
	LookupIn(tier Tier, key string) (any, bool)
}

// Get reads key through any Reader and recovers it as T. Precedence is
// type-aware: a session value of the wrong type does not shadow a
// type-matching global value. A missing key or no type-matching value in
// any tier both report absent, never an error.
func Get[T any](r Reader, key string) (T, bool) {
	if tr, ok := r.(tierReader); ok {
		if typed, ok := getIn[T](tr, TierSession, key); ok {
			return typed, true
		}
		return getIn[T](tr, TierGlobal, key)
	}

	var zero T
	v, ok := r.Lookup(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func getIn[T any](r tierReader, tier Tier, key string) (T, bool) {
	var zero T
	v, ok := r.LookupIn(tier, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
