// Package store keeps the tracked file entries. All access goes through keyed
// operations under one lock; readers only ever receive copies.
package store

import (
	"sync"
	"time"

	"ocrdrop/pkg/types"

	"github.com/google/uuid"
)

// Store is the ordered set of tracked entries.
type Store struct {
	mu      sync.RWMutex
	entries []*types.FileEntry
	subs    map[int]chan struct{}
	nextSub int

	now   func() time.Time
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs sets the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		subs:  make(map[int]chan struct{}),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create appends a pending entry for the file and returns it.
func (s *Store) Create(file types.FileHandle) types.FileEntry {
	s.mu.Lock()
	e := &types.FileEntry{
		ID:      s.newID(),
		File:    file,
		Status:  types.StatusPending,
		AddedAt: s.now(),
	}
	s.entries = append(s.entries, e)
	out := e.Clone()
	s.mu.Unlock()

	s.notify()
	return out
}

// Patch applies fn to the entry with the given id. It reports false, and
// does nothing, when the id is not tracked.
func (s *Store) Patch(id string, fn func(e *types.FileEntry)) (types.FileEntry, bool) {
	return s.patch(id, func(e *types.FileEntry) bool {
		fn(e)
		return true
	})
}

// PatchAttempt is Patch restricted to the given attempt of the entry, so a
// callback started for a superseded attempt cannot overwrite newer state.
func (s *Store) PatchAttempt(id string, attempt int, fn func(e *types.FileEntry)) (types.FileEntry, bool) {
	return s.patch(id, func(e *types.FileEntry) bool {
		if e.Attempt != attempt {
			return false
		}
		fn(e)
		return true
	})
}

func (s *Store) patch(id string, fn func(e *types.FileEntry) bool) (types.FileEntry, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || !fn(s.entries[i]) {
		s.mu.Unlock()
		return types.FileEntry{}, false
	}
	s.entries[i].ID = id
	out := s.entries[i].Clone()
	s.mu.Unlock()

	s.notify()
	return out, true
}

// Remove drops the entry with the given id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.mu.Unlock()

	s.notify()
	return true
}

// Clear drops every entry and returns the ids that were removed.
func (s *Store) Clear() []string {
	s.mu.Lock()
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	s.entries = nil
	s.mu.Unlock()

	if len(ids) > 0 {
		s.notify()
	}
	return ids
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(id string) (types.FileEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return types.FileEntry{}, false
	}
	return s.entries[i].Clone(), true
}

// List returns copies of all entries in insertion order.
func (s *Store) List() []types.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.FileEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of tracked entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe returns a channel that receives a signal after changes. Signals
// are coalesced: a pending signal means "read again", not one per change.
// The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
