package tle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current dataset.
type Store struct {
	dataset atomic.Pointer[Dataset]
	mu      sync.Mutex // serializes refresh operations
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Get returns the current dataset, or nil if none has been loaded.
func (s *Store) Get() *Dataset {
	return s.dataset.Load()
}

// Lookup returns the current entry for a catalog number.
func (s *Store) Lookup(noradID int) (Entry, bool) {
	ds := s.dataset.Load()
	if ds == nil {
		return Entry{}, false
	}
	e, ok := ds.Entries[noradID]
	return e, ok
}

// Set atomically replaces the current dataset.
func (s *Store) Set(ds *Dataset) {
	s.dataset.Store(ds)
}

// AgeSeconds returns the age of the current dataset in seconds, or -1 if no
// dataset is loaded.
func (s *Store) AgeSeconds() float64 {
	ds := s.dataset.Load()
	if ds == nil {
		return -1
	}
	return time.Since(ds.FetchedAt).Seconds()
}

// Lock acquires the refresh mutex.
func (s *Store) Lock() { s.mu.Lock() }

// Unlock releases the refresh mutex.
func (s *Store) Unlock() { s.mu.Unlock() }
