// Package storetest provides a reusable test suite that exercises the
// docstore.Store contract. Concrete store test packages embed BaseSuite and
// wire in their implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/docstore"
)

// BaseSuite defines a set of re-usable document store tests that can be
// executed against any concrete type that implements the docstore.Store
// interface.
type BaseSuite struct {
	store docstore.Store
}

// SetStore sets the store implementation under test.
func (s *BaseSuite) SetStore(store docstore.Store) {
	s.store = store
}

// TestReserveAssignsDenseIDs verifies that fresh URLs receive monotonically
// increasing ids starting at 1.
func (s *BaseSuite) TestReserveAssignsDenseIDs(c *check.C) {
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := s.store.Reserve(ctx, fmt.Sprintf("https://example.test/%d", i))
		c.Assert(err, check.IsNil)
		c.Assert(id, check.Equals, int64(i))
	}
}

// TestReserveDuplicate verifies that a second reservation of the same URL
// reports ErrDuplicate without creating a row.
func (s *BaseSuite) TestReserveDuplicate(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/dup")
	c.Assert(err, check.IsNil)

	_, err = s.store.Reserve(ctx, "https://example.test/dup")
	c.Assert(errors.Is(err, docstore.ErrDuplicate), check.Equals, true)

	// The original row must be untouched.
	meta, err := s.store.Metadata(ctx, []int64{id})
	c.Assert(err, check.IsNil)
	c.Assert(meta[id].URL, check.Equals, "https://example.test/dup")
}

// TestConcurrentReserve verifies that N concurrent reservations of one URL
// yield exactly one fresh id and N-1 duplicate responses.
func (s *BaseSuite) TestConcurrentReserve(c *check.C) {
	const numCallers = 16
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(numCallers)

	ids := make(chan int64, numCallers)
	dups := make(chan error, numCallers)

	for i := 0; i < numCallers; i++ {
		go func() {
			defer wg.Done()

			id, err := s.store.Reserve(ctx, "https://example.test/contended")
			if err != nil {
				dups <- err
				return
			}
			ids <- id
		}()
	}

	wg.Wait()
	close(ids)
	close(dups)

	c.Assert(len(ids), check.Equals, 1)
	c.Assert(len(dups), check.Equals, numCallers-1)

	for err := range dups {
		c.Assert(errors.Is(err, docstore.ErrDuplicate), check.Equals, true)
	}
}

// TestCrawlLifecycle verifies the processing -> crawled transition and the
// recorded locator.
func (s *BaseSuite) TestCrawlLifecycle(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/page")
	c.Assert(err, check.IsNil)

	loc := docstore.Locator{FilePath: "crawl.warc.gz", Offset: 2048, Length: 512}
	c.Assert(s.store.MarkCrawled(ctx, id, loc, "cafebabe"), check.IsNil)

	got, err := s.store.Locator(ctx, id)
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, loc)
}

// TestMarkFailed verifies that a reserved document accepts the error
// transition used for failed fetches. The resulting status is not read back:
// the Store interface has no status accessor.
func (s *BaseSuite) TestMarkFailed(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/broken")
	c.Assert(err, check.IsNil)
	c.Assert(s.store.MarkFailed(ctx, id), check.IsNil)
}

// TestMarkNotQueued verifies that a crawled document accepts the
// crawled_not_queued transition. The resulting status is not read back: the
// Store interface has no status accessor.
func (s *BaseSuite) TestMarkNotQueued(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/unqueued")
	c.Assert(err, check.IsNil)

	loc := docstore.Locator{FilePath: "crawl.warc.gz", Offset: 0, Length: 64}
	c.Assert(s.store.MarkCrawled(ctx, id, loc, ""), check.IsNil)
	c.Assert(s.store.MarkNotQueued(ctx, id), check.IsNil)
}

// TestLocatorForUnknownDocument verifies the ErrNotFound contract.
func (s *BaseSuite) TestLocatorForUnknownDocument(c *check.C) {
	_, err := s.store.Locator(context.Background(), 424242)
	c.Assert(errors.Is(err, docstore.ErrNotFound), check.Equals, true)
}

// TestDocLengthAndTitle verifies the indexer-side mutations and their
// visibility through Metadata.
func (s *BaseSuite) TestDocLengthAndTitle(c *check.C) {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, "https://example.test/indexed")
	c.Assert(err, check.IsNil)

	c.Assert(s.store.SetDocLength(ctx, id, 37), check.IsNil)
	c.Assert(s.store.SetTitle(ctx, id, "Indexed Page"), check.IsNil)

	meta, err := s.store.Metadata(ctx, []int64{id})
	c.Assert(err, check.IsNil)
	c.Assert(meta[id], check.DeepEquals, docstore.DocMeta{
		URL:       "https://example.test/indexed",
		Title:     "Indexed Page",
		DocLength: 37,
	})
}

// TestBatchedMetadata verifies that one call covers many ids and silently
// drops unknown ones.
func (s *BaseSuite) TestBatchedMetadata(c *check.C) {
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.store.Reserve(ctx, fmt.Sprintf("https://example.test/batch/%d", i))
		c.Assert(err, check.IsNil)
		ids = append(ids, id)
	}

	meta, err := s.store.Metadata(ctx, append(ids, 999999))
	c.Assert(err, check.IsNil)
	c.Assert(len(meta), check.Equals, 3)
}

// TestStats verifies document counting and average doc length computation.
func (s *BaseSuite) TestStats(c *check.C) {
	ctx := context.Background()

	id1, err := s.store.Reserve(ctx, "https://example.test/stats/1")
	c.Assert(err, check.IsNil)
	id2, err := s.store.Reserve(ctx, "https://example.test/stats/2")
	c.Assert(err, check.IsNil)

	c.Assert(s.store.SetDocLength(ctx, id1, 10), check.IsNil)
	c.Assert(s.store.SetDocLength(ctx, id2, 30), check.IsNil)

	stats, err := s.store.Stats(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(stats.TotalDocs, check.Equals, int64(2))
	c.Assert(stats.AvgDocLength, check.Equals, 20.0)
}
