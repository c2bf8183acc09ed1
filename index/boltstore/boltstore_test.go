package boltstore

import (
	"path/filepath"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/index/indextest"
)

var _ = check.Suite(new(boltIndexTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// boltIndexTestSuite embeds and runs the BaseSuite test methods against the
// bbolt-backed index implementation.
type boltIndexTestSuite struct {
	store *Store
	indextest.BaseSuite
}

// SetUpTest opens a fresh database file for every test so tests remain
// independent.
func (s *boltIndexTestSuite) SetUpTest(c *check.C) {
	store, err := NewStore(filepath.Join(c.MkDir(), "index.db"))
	c.Assert(err, check.IsNil)

	s.store = store
	s.SetIndex(store)
}

func (s *boltIndexTestSuite) TearDownTest(c *check.C) {
	if s.store != nil {
		c.Assert(s.store.Close(), check.IsNil)
	}
}

// TestPostingsSurviveReopen verifies the index is durable across close and
// reopen of the same file.
func (s *boltIndexTestSuite) TestPostingsSurviveReopen(c *check.C) {
	path := filepath.Join(c.MkDir(), "durable.db")

	store, err := NewStore(path)
	c.Assert(err, check.IsNil)
	c.Assert(store.Add("durable", 11, 4), check.IsNil)
	c.Assert(store.Close(), check.IsNil)

	reopened, err := NewStore(path)
	c.Assert(err, check.IsNil)
	defer reopened.Close()

	postings, err := reopened.Postings("durable")
	c.Assert(err, check.IsNil)
	c.Assert(len(postings), check.Equals, 1)
	c.Assert(postings[0].DocID, check.Equals, int64(11))
	c.Assert(postings[0].Frequency, check.Equals, uint32(4))
}
