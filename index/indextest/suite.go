// Package indextest provides a reusable test suite that exercises the
// index.Store contract.
package indextest

import (
	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/index"
)

// BaseSuite defines a set of re-usable inverted index tests that can be
// executed against any concrete type that implements the index.Store
// interface.
type BaseSuite struct {
	idx index.Store
}

// SetIndex sets the index implementation under test.
func (s *BaseSuite) SetIndex(idx index.Store) {
	s.idx = idx
}

// TestUnknownTermYieldsNil verifies the missing-term contract the ranker
// relies on.
func (s *BaseSuite) TestUnknownTermYieldsNil(c *check.C) {
	postings, err := s.idx.Postings("nonexistent")
	c.Assert(err, check.IsNil)
	c.Assert(postings, check.IsNil)
}

// TestAddAndLookup verifies basic posting storage with frequencies.
func (s *BaseSuite) TestAddAndLookup(c *check.C) {
	c.Assert(s.idx.Add("golang", 1, 3), check.IsNil)
	c.Assert(s.idx.Add("golang", 2, 1), check.IsNil)

	postings, err := s.idx.Postings("golang")
	c.Assert(err, check.IsNil)
	c.Assert(postings, check.DeepEquals, []index.Posting{
		{DocID: 1, Frequency: 3},
		{DocID: 2, Frequency: 1},
	})
}

// TestPostingsOrderedByDocID verifies ascending doc-id order regardless of
// insertion order.
func (s *BaseSuite) TestPostingsOrderedByDocID(c *check.C) {
	for _, docID := range []int64{42, 7, 19} {
		c.Assert(s.idx.Add("ordered", docID, 1), check.IsNil)
	}

	postings, err := s.idx.Postings("ordered")
	c.Assert(err, check.IsNil)

	for i := 1; i < len(postings); i++ {
		c.Assert(postings[i-1].DocID < postings[i].DocID, check.Equals, true)
	}
}

// TestReindexingIsIdempotent verifies that re-adding a document converges to
// the same posting list rather than growing it.
func (s *BaseSuite) TestReindexingIsIdempotent(c *check.C) {
	freqs := map[string]uint32{"hello": 2, "world": 1}

	c.Assert(s.idx.AddBatch(1, freqs), check.IsNil)
	c.Assert(s.idx.AddBatch(1, freqs), check.IsNil)

	postings, err := s.idx.Postings("hello")
	c.Assert(err, check.IsNil)
	c.Assert(postings, check.DeepEquals, []index.Posting{{DocID: 1, Frequency: 2}})
}

// TestReindexingReplacesFrequency verifies the upsert semantics when a
// document's content changed between indexing passes.
func (s *BaseSuite) TestReindexingReplacesFrequency(c *check.C) {
	c.Assert(s.idx.Add("drift", 5, 2), check.IsNil)
	c.Assert(s.idx.Add("drift", 5, 9), check.IsNil)

	postings, err := s.idx.Postings("drift")
	c.Assert(err, check.IsNil)
	c.Assert(postings, check.DeepEquals, []index.Posting{{DocID: 5, Frequency: 9}})
}

// TestAddBatch verifies multi-term ingestion for one document.
func (s *BaseSuite) TestAddBatch(c *check.C) {
	err := s.idx.AddBatch(3, map[string]uint32{"quick": 1, "brown": 1, "fox": 2})
	c.Assert(err, check.IsNil)

	for _, term := range []string{"quick", "brown", "fox"} {
		postings, err := s.idx.Postings(term)
		c.Assert(err, check.IsNil)
		c.Assert(len(postings), check.Equals, 1)
		c.Assert(postings[0].DocID, check.Equals, int64(3))
	}
}

// TestEmptyTermRejected verifies the ErrEmptyTerm contract.
func (s *BaseSuite) TestEmptyTermRejected(c *check.C) {
	c.Assert(s.idx.Add("", 1, 1), check.Equals, index.ErrEmptyTerm)
}
