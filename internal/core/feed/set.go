// Package feed loads and maintains the record set for a monitoring session:
// a backward backfill to seed it, then forward polls that grow it.
package feed

import (
	"errors"
	"sync"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

var (
	// ErrAlreadyInitialized reports a second Init on a set.
	ErrAlreadyInitialized = errors.New("record set already initialized")

	// ErrNotInitialized reports a Merge before Init.
	ErrNotInitialized = errors.New("record set not initialized")
)

// Set is the loaded record set for one session: every record fetched so far,
// deduplicated by id, in display order with the most recent first. It has
// exactly two mutations: Init seeds it once with the backfill result, and
// Merge folds in each poll. Records never leave the set while the session
// lives.
type Set struct {
	mu          sync.Mutex
	initialized bool
	byID        map[string]records.Record
	ordered     []records.Record
}

// NewSet returns an empty, uninitialized set.
func NewSet() *Set {
	return &Set{byID: make(map[string]records.Record)}
}

// Init seeds the set, newest first. It succeeds exactly once; a later call
// reports ErrAlreadyInitialized and changes nothing.
func (s *Set) Init(recs []records.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}
	for _, r := range recs {
		if _, dup := s.byID[r.ID]; dup {
			continue
		}
		s.byID[r.ID] = r
		s.ordered = append(s.ordered, r)
	}
	s.initialized = true
	return nil
}

// Merge folds a poll result into the set and returns the records that were
// genuinely new, in the order they appeared in recs. New records are
// prepended to the display order ahead of everything already loaded; ids the
// set already holds are left untouched.
func (s *Set) Merge(recs []records.Record) ([]records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	var fresh []records.Record
	for _, r := range recs {
		if _, seen := s.byID[r.ID]; seen {
			continue
		}
		s.byID[r.ID] = r
		fresh = append(fresh, r)
	}
	if len(fresh) > 0 {
		merged := make([]records.Record, 0, len(fresh)+len(s.ordered))
		merged = append(merged, fresh...)
		s.ordered = append(merged, s.ordered...)
	}
	return fresh, nil
}

// Records returns the display ordering, most recent first. The slice is a
// copy and stays valid across later merges.
func (s *Set) Records() []records.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]records.Record, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len returns the number of loaded records.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Contains reports whether a record with the given id is loaded.
func (s *Set) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.byID[id]
	return found
}

// Initialized reports whether Init has run.
func (s *Set) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}
