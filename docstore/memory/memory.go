// Package memory provides an in-memory implementation of the document
// metadata store for use by tests and local single-process runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ferretsearch/ferret/docstore"
)

// Static and compile-time check to ensure Store implements the
// docstore.Store interface.
var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store using mutex-guarded maps.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*docstore.Document
	byURL  map[string]int64
}

// NewStore returns an empty in-memory document store.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		byID:   make(map[int64]*docstore.Document),
		byURL:  make(map[string]int64),
	}
}

// Close implements docstore.Store. It is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Reserve assigns the next dense id to url, or reports ErrDuplicate.
func (s *Store) Reserve(_ context.Context, url string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byURL[url]; exists {
		return 0, fmt.Errorf("reserve %q: %w", url, docstore.ErrDuplicate)
	}

	id := s.nextID
	s.nextID++

	s.byID[id] = &docstore.Document{
		ID:     id,
		URL:    url,
		Status: docstore.StatusProcessing,
	}
	s.byURL[url] = id

	return id, nil
}

// MarkCrawled records the archive locator and flips the row to crawled.
func (s *Store) MarkCrawled(
	_ context.Context, id int64, loc docstore.Locator, contentHash string,
) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("mark crawled %d: %w", id, docstore.ErrNotFound)
	}

	doc.Status = docstore.StatusCrawled
	doc.CrawledAt = time.Now().UTC()
	doc.FilePath = loc.FilePath
	doc.Offset = loc.Offset
	doc.Length = loc.Length
	doc.ContentHash = contentHash

	return nil
}

// MarkFailed flips the row to the error status.
func (s *Store) MarkFailed(_ context.Context, id int64) error {
	return s.setStatus(id, docstore.StatusError)
}

// MarkNotQueued flips the row to crawled_not_queued.
func (s *Store) MarkNotQueued(_ context.Context, id int64) error {
	return s.setStatus(id, docstore.StatusCrawledNotQueued)
}

func (s *Store) setStatus(id int64, status docstore.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("set status %d: %w", id, docstore.ErrNotFound)
	}

	doc.Status = status

	return nil
}

// Locator returns the archive locator recorded for a document.
func (s *Store) Locator(_ context.Context, id int64) (docstore.Locator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.byID[id]
	if !exists {
		return docstore.Locator{}, fmt.Errorf(
			"locator %d: %w", id, docstore.ErrNotFound,
		)
	}

	return docstore.Locator{
		FilePath: doc.FilePath,
		Offset:   doc.Offset,
		Length:   doc.Length,
	}, nil
}

// SetDocLength records the canonical token count for a document.
func (s *Store) SetDocLength(_ context.Context, id int64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("set doc length %d: %w", id, docstore.ErrNotFound)
	}

	doc.DocLength = n
	doc.HasDocLength = true

	return nil
}

// SetTitle records the extracted page title for a document.
func (s *Store) SetTitle(_ context.Context, id int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.byID[id]
	if !exists {
		return fmt.Errorf("set title %d: %w", id, docstore.ErrNotFound)
	}

	doc.Title = title

	return nil
}

// Metadata fetches url/title/doc_length for a batch of ids.
func (s *Store) Metadata(
	_ context.Context, ids []int64,
) (map[int64]docstore.DocMeta, error) {

	s.mu.RLock()
	defer s.mu.RUnlock()

	meta := make(map[int64]docstore.DocMeta, len(ids))
	for _, id := range ids {
		if doc, exists := s.byID[id]; exists {
			meta[id] = docstore.DocMeta{
				URL:       doc.URL,
				Title:     doc.Title,
				DocLength: doc.DocLength,
			}
		}
	}

	return meta, nil
}

// Stats returns the corpus aggregates used by BM25 scoring.
func (s *Store) Stats(_ context.Context) (docstore.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats docstore.Stats
	var sum, indexed int64

	for _, doc := range s.byID {
		stats.TotalDocs++
		if doc.HasDocLength {
			sum += int64(doc.DocLength)
			indexed++
		}
	}

	if indexed > 0 {
		stats.AvgDocLength = float64(sum) / float64(indexed)
	}

	return stats, nil
}

// Document returns a copy of the document row for id. Tests use it to assert
// on pipeline state transitions.
func (s *Store) Document(id int64) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.byID[id]
	if !exists {
		return docstore.Document{}, docstore.ErrNotFound
	}

	return *doc, nil
}
