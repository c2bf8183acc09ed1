// Package memory provides an in-memory inverted index for tests and local
// single-process runs.
package memory

import (
	"sync"

	"github.com/ferretsearch/ferret/index"
)

// Static and compile-time check to ensure Store implements the index.Store
// interface.
var _ index.Store = (*Store)(nil)

// Store implements index.Store using a mutex-guarded map of posting lists.
type Store struct {
	mu       sync.RWMutex
	postings map[string][]index.Posting
}

// NewStore returns an empty in-memory index.
func NewStore() *Store {
	return &Store{postings: make(map[string][]index.Posting)}
}

// Close implements index.Store. It is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Add upserts one posting.
func (s *Store) Add(term string, docID int64, tf uint32) error {
	if term == "" {
		return index.ErrEmptyTerm
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated, changed := index.UpsertPosting(s.postings[term], docID, tf)
	if changed {
		s.postings[term] = updated
	}

	return nil
}

// AddBatch upserts one document's postings for all terms in termFreqs.
func (s *Store) AddBatch(docID int64, termFreqs map[string]uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for term, tf := range termFreqs {
		if term == "" {
			return index.ErrEmptyTerm
		}

		updated, changed := index.UpsertPosting(s.postings[term], docID, tf)
		if changed {
			s.postings[term] = updated
		}
	}

	return nil
}

// Postings returns a copy of the posting list for term, or nil for unknown
// terms.
func (s *Store) Postings(term string) ([]index.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current, exists := s.postings[term]
	if !exists {
		return nil, nil
	}

	postings := make([]index.Posting, len(current))
	copy(postings, current)

	return postings, nil
}

// Terms returns the number of distinct terms in the index. Tests use it to
// assert that skipped documents leave no partial entries behind.
func (s *Store) Terms() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.postings)
}
