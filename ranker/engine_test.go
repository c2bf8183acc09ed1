package ranker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/docstore"
	docmem "github.com/ferretsearch/ferret/docstore/memory"
	idxmem "github.com/ferretsearch/ferret/index/memory"
	queuemem "github.com/ferretsearch/ferret/queue/memory"
	"github.com/ferretsearch/ferret/textproc"
	"github.com/ferretsearch/ferret/warc"
)

var _ = check.Suite(new(EngineTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

type EngineTestSuite struct {
	store      *docmem.Store
	idx        *idxmem.Store
	archiveDir string
	archive    *warc.Writer
	engine     *Engine
}

func (s *EngineTestSuite) SetUpTest(c *check.C) {
	s.store = docmem.NewStore()
	s.idx = idxmem.NewStore()

	s.archiveDir = c.MkDir()
	archive, err := warc.OpenWriter(filepath.Join(s.archiveDir, "crawl.warc.gz"))
	c.Assert(err, check.IsNil)
	s.archive = archive

	engine, err := NewEngine(Config{
		Index:       s.idx,
		DocStore:    s.store,
		ArchiveRoot: s.archiveDir,
		StatsTTL:    time.Nanosecond, // always refresh in tests
	})
	c.Assert(err, check.IsNil)
	s.engine = engine
}

func (s *EngineTestSuite) TearDownTest(c *check.C) {
	c.Assert(s.archive.Close(), check.IsNil)
}

// indexDocument pushes one document through the same steps the pipeline
// performs: reserve, archive, mark crawled, tokenize, index.
func (s *EngineTestSuite) indexDocument(c *check.C, url string, html string) int64 {
	ctx := context.Background()

	id, err := s.store.Reserve(ctx, url)
	c.Assert(err, check.IsNil)

	offset, length, err := s.archive.WriteRecord(url, []byte(html))
	c.Assert(err, check.IsNil)

	err = s.store.MarkCrawled(ctx, id, docstore.Locator{
		FilePath: "crawl.warc.gz",
		Offset:   offset,
		Length:   length,
	}, "")
	c.Assert(err, check.IsNil)

	text, title := textproc.ExtractText([]byte(html))
	freqs, total := textproc.TermFrequencies(textproc.Tokenize(text))

	c.Assert(s.idx.AddBatch(id, freqs), check.IsNil)
	c.Assert(s.store.SetDocLength(ctx, id, total), check.IsNil)
	if title != "" {
		c.Assert(s.store.SetTitle(ctx, id, title), check.IsNil)
	}

	return id
}

func (s *EngineTestSuite) TestSingleTermMatchesOneDocument(c *check.C) {
	d1 := s.indexDocument(c, "https://example.test/1",
		"<html><body>quick brown fox</body></html>")
	s.indexDocument(c, "https://example.test/2",
		"<html><body>quick red fox</body></html>")

	results, err := s.engine.Search(context.Background(), "brown")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 1)
	c.Assert(results[0].ID, check.Equals, d1)
	c.Assert(results[0].URL, check.Equals, "https://example.test/1")
	c.Assert(results[0].Score > 0, check.Equals, true)
}

func (s *EngineTestSuite) TestSharedTermTieBreaksByDocID(c *check.C) {
	d1 := s.indexDocument(c, "https://example.test/1",
		"<html><body>quick brown fox</body></html>")
	d2 := s.indexDocument(c, "https://example.test/2",
		"<html><body>quick red fox</body></html>")

	// Both documents match "fox" with identical frequencies and lengths:
	// the tie must break deterministically on ascending doc id.
	results, err := s.engine.Search(context.Background(), "fox")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 2)
	c.Assert(results[0].ID, check.Equals, d1)
	c.Assert(results[1].ID, check.Equals, d2)
}

func (s *EngineTestSuite) TestHigherTermFrequencyScoresHigher(c *check.C) {
	s.indexDocument(c, "https://example.test/once",
		"<html><body>salmon and other things entirely unrelated</body></html>")
	repeated := s.indexDocument(c, "https://example.test/thrice",
		"<html><body>salmon salmon salmon and little else here</body></html>")

	results, err := s.engine.Search(context.Background(), "salmon")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 2)
	c.Assert(results[0].ID, check.Equals, repeated)
	c.Assert(results[0].Score > results[1].Score, check.Equals, true)
}

func (s *EngineTestSuite) TestMissingTermYieldsNoResults(c *check.C) {
	s.indexDocument(c, "https://example.test/1",
		"<html><body>quick brown fox</body></html>")

	results, err := s.engine.Search(context.Background(), "zebra")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 0)
}

func (s *EngineTestSuite) TestStopWordOnlyQueryYieldsNoResults(c *check.C) {
	s.indexDocument(c, "https://example.test/1",
		"<html><body>the and with</body></html>")

	results, err := s.engine.Search(context.Background(), "the and with")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 0)
}

func (s *EngineTestSuite) TestTopKLimit(c *check.C) {
	for i := 0; i < 15; i++ {
		s.indexDocument(c,
			"https://example.test/bulk/"+string(rune('a'+i)),
			"<html><body>common term document</body></html>")
	}

	results, err := s.engine.Search(context.Background(), "common")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 10)
}

func (s *EngineTestSuite) TestSnippetHighlightsMatches(c *check.C) {
	s.indexDocument(c, "https://example.test/snippet",
		"<html><body>Unrelated opening sentence. The nimble ferret chases prey. Closing words.</body></html>")

	results, err := s.engine.Search(context.Background(), "ferret")
	c.Assert(err, check.IsNil)
	c.Assert(len(results), check.Equals, 1)
	c.Assert(results[0].Snippet, check.Matches, ".*<b>ferret</b>.*")
	c.Assert(len(results[0].Snippet) <= 200, check.Equals, true)
}

func (s *EngineTestSuite) TestResultsServedFromCache(c *check.C) {
	cache := queuemem.NewCache()

	engine, err := NewEngine(Config{
		Index:       s.idx,
		DocStore:    s.store,
		ArchiveRoot: s.archiveDir,
		Cache:       cache,
		StatsTTL:    time.Nanosecond,
	})
	c.Assert(err, check.IsNil)

	s.indexDocument(c, "https://example.test/cached",
		"<html><body>cachable document body</body></html>")

	ctx := context.Background()

	first, err := engine.Search(ctx, "cachable")
	c.Assert(err, check.IsNil)
	c.Assert(len(first), check.Equals, 1)

	// A differently-written query normalizing to the same terms must hit
	// the same cache entry.
	second, err := engine.Search(ctx, "  CACHABLE!  ")
	c.Assert(err, check.IsNil)
	c.Assert(second, check.DeepEquals, first)
}
