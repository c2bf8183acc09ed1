// Package boltstore implements the inverted index on top of a bbolt file
// database. bbolt admits a single writer at a time, which provides the
// per-key serialization the posting read-modify-write cycle requires even
// with multiple indexer workers sharing the store.
package boltstore

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/ferretsearch/ferret/index"
)

var postingsBucket = []byte("postings")

// Static and compile-time check to ensure Store implements the index.Store
// interface.
var _ index.Store = (*Store)(nil)

// Store implements index.Store backed by a bbolt database file.
type Store struct {
	db *bolt.DB
}

// NewStore opens (creating if missing) the bbolt database at path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(postingsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create postings bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// NewReadOnlyStore opens the bbolt database at path in read-only mode. The
// ranking service uses this so several reader processes can share the index
// file; a read-only store and the indexing writer cannot run on the same
// file at the same time.
func NewReadOnlyStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open index db read-only: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add upserts one posting inside a single write transaction.
func (s *Store) Add(term string, docID int64, tf uint32) error {
	if term == "" {
		return index.ErrEmptyTerm
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return upsertInTx(tx, term, docID, tf)
	})
	if err != nil {
		return fmt.Errorf("add posting %q/%d: %w", term, docID, err)
	}

	return nil
}

// AddBatch upserts one document's postings for all terms in a single write
// transaction, so a crash mid-document never leaves the document half
// visible in some terms committed by the same call.
func (s *Store) AddBatch(docID int64, termFreqs map[string]uint32) error {
	if len(termFreqs) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for term, tf := range termFreqs {
			if term == "" {
				return index.ErrEmptyTerm
			}

			if err := upsertInTx(tx, term, docID, tf); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("add batch for doc %d: %w", docID, err)
	}

	return nil
}

func upsertInTx(tx *bolt.Tx, term string, docID int64, tf uint32) error {
	bucket := tx.Bucket(postingsBucket)

	var (
		postings []index.Posting
		err      error
	)

	if current := bucket.Get([]byte(term)); current != nil {
		if postings, err = index.DecodePostings(current); err != nil {
			return err
		}
	}

	postings, changed := index.UpsertPosting(postings, docID, tf)
	if !changed {
		return nil
	}

	return bucket.Put([]byte(term), index.EncodePostings(postings))
}

// Postings returns the posting list for term, or nil for unknown terms.
func (s *Store) Postings(term string) ([]index.Posting, error) {
	var postings []index.Posting

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(postingsBucket)
		if bucket == nil {
			// Fresh file opened read-only before any write happened.
			return nil
		}

		value := bucket.Get([]byte(term))
		if value == nil {
			return nil
		}

		var err error
		postings, err = index.DecodePostings(value)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("postings %q: %w", term, err)
	}

	return postings, nil
}
