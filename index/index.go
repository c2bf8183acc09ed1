/*
	Package index defines the inverted index consumed by the ranker and
	written by the indexer. Each term maps to a posting list: the set of
	documents containing the term together with the term's in-document
	frequency, which the ranker feeds into BM25.
*/
package index

import "errors"

// ErrEmptyTerm is returned when a caller attempts to store a posting under
// an empty term.
var ErrEmptyTerm = errors.New("empty index term")

// Posting records one document's membership in a term's posting list.
type Posting struct {
	// DocID is the document identifier assigned by the metadata store.
	DocID int64

	// Frequency is the number of occurrences of the term in the document.
	Frequency uint32
}

// Store is implemented by inverted index stores.
type Store interface {
	// Add upserts one posting. Re-adding a document under the same term
	// replaces its frequency, so indexing a document twice converges to the
	// same posting list.
	Add(term string, docID int64, tf uint32) error

	// AddBatch upserts the postings of one document for every term in
	// termFreqs.
	AddBatch(docID int64, termFreqs map[string]uint32) error

	// Postings returns the posting list for term ordered by ascending
	// document id, or nil when the term is unknown.
	Postings(term string) ([]Posting, error)

	// Close releases the store's resources.
	Close() error
}
