package state

import (
	"sort"
	"sync"
)

// ChangeKind labels a store mutation for observers.
type ChangeKind string

const (
	ChangeSet     ChangeKind = "set"
	ChangeRemoved ChangeKind = "removed"
	ChangeCleared ChangeKind = "cleared"
)

// Change describes one store mutation.
type Change struct {
	Kind  ChangeKind  `json:"kind"`
	Key   string      `json:"key,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// Store is the process-wide key/value state shared between the host UI
// and the backend. One instance owns the map; observers are notified
// after each mutation outside the lock.
type Store struct {
	mu     sync.RWMutex
	values map[string]interface{}

	obsMu     sync.RWMutex
	observers []func(Change)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]interface{})}
}

// Observe registers a callback invoked after every mutation.
func (s *Store) Observe(fn func(Change)) {
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

func (s *Store) notify(c Change) {
	s.obsMu.RLock()
	observers := s.observers
	s.obsMu.RUnlock()
	for _, fn := range observers {
		fn(c)
	}
}

// Set stores value under key.
func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeSet, Key: key, Value: value})
}

// Get returns the value for key.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Remove deletes key, reporting whether it existed.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	_, existed := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()
	if existed {
		s.notify(Change{Kind: ChangeRemoved, Key: key})
	}
	return existed
}

// Keys returns all keys sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Clear removes everything.
func (s *Store) Clear() {
	s.mu.Lock()
	s.values = make(map[string]interface{})
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeCleared})
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
