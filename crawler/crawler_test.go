package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	check "gopkg.in/check.v1"

	"github.com/ferretsearch/ferret/docstore"
	docmem "github.com/ferretsearch/ferret/docstore/memory"
	queuemem "github.com/ferretsearch/ferret/queue/memory"
	"github.com/ferretsearch/ferret/warc"
)

var _ = check.Suite(new(CrawlerTestSuite))

// stubFetcher serves canned pages keyed by URL.
type stubFetcher struct {
	pages map[string][]byte
	err   error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	page, exists := f.pages[url]
	if !exists {
		return nil, fmt.Errorf("no route to host")
	}

	return page, nil
}

type CrawlerTestSuite struct {
	crawlQueue *queuemem.Queue
	indexQueue *queuemem.Queue
	store      *docmem.Store
	archive    *warc.Writer
	archiveDir string
	fetcher    *stubFetcher
	svc        *Service
}

func (s *CrawlerTestSuite) SetUpTest(c *check.C) {
	s.crawlQueue = queuemem.NewQueue()
	s.indexQueue = queuemem.NewQueue()
	s.store = docmem.NewStore()
	s.fetcher = &stubFetcher{pages: make(map[string][]byte)}

	s.archiveDir = c.MkDir()
	archive, err := warc.OpenWriter(filepath.Join(s.archiveDir, "crawl.warc.gz"))
	c.Assert(err, check.IsNil)
	s.archive = archive

	svc, err := New(Config{
		CrawlQueue:   s.crawlQueue,
		IndexQueue:   s.indexQueue,
		DocStore:     s.store,
		Archive:      s.archive,
		ArchiveFile:  "crawl.warc.gz",
		Fetcher:      s.fetcher,
		NetDetector:  allowAllDetector{},
		CrawlDelay:   time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})
	c.Assert(err, check.IsNil)
	s.svc = svc
}

func (s *CrawlerTestSuite) TearDownTest(c *check.C) {
	c.Assert(s.archive.Close(), check.IsNil)
}

func (s *CrawlerTestSuite) TestHappyPathSingleDocument(c *check.C) {
	ctx := context.Background()
	const url = "https://example.test/a"

	s.fetcher.pages[url] = []byte(
		"<html><title>T</title><body>hello world hello</body></html>",
	)

	s.svc.processURL(ctx, url)

	doc, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	c.Assert(doc.Status, check.Equals, docstore.StatusCrawled)
	c.Assert(doc.FilePath, check.Equals, "crawl.warc.gz")
	c.Assert(doc.ContentHash, check.Not(check.Equals), "")

	// The archived payload must round-trip byte-equal through the locator.
	header, payload, err := warc.ReadRecord(
		filepath.Join(s.archiveDir, doc.FilePath), doc.Offset, doc.Length, 0,
	)
	c.Assert(err, check.IsNil)
	c.Assert(header.TargetURI, check.Equals, url)
	c.Assert(payload, check.DeepEquals, s.fetcher.pages[url])

	// Exactly one indexing job for doc id 1.
	job, err := s.indexQueue.Pop(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(job, check.Equals, "1")
}

func (s *CrawlerTestSuite) TestDuplicateURLCrawledOnce(c *check.C) {
	ctx := context.Background()
	const url = "https://example.test/dup"

	s.fetcher.pages[url] = []byte("<html><body>same page</body></html>")

	s.svc.processURL(ctx, url)
	s.svc.processURL(ctx, url)

	// Exactly one document row.
	_, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	_, err = s.store.Document(2)
	c.Assert(errors.Is(err, docstore.ErrNotFound), check.Equals, true)

	// Exactly one archived record: the single record must span the whole
	// archive file.
	doc, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	c.Assert(doc.Offset, check.Equals, int64(0))

	info, err := os.Stat(filepath.Join(s.archiveDir, doc.FilePath))
	c.Assert(err, check.IsNil)
	c.Assert(info.Size(), check.Equals, doc.Length)

	// And exactly one indexing job.
	n, err := s.indexQueue.Len(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, int64(1))
}

func (s *CrawlerTestSuite) TestFetchFailureMarksDocumentFailed(c *check.C) {
	ctx := context.Background()
	const url = "https://example.test/unreachable"

	s.svc.processURL(ctx, url)

	doc, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	c.Assert(doc.Status, check.Equals, docstore.StatusError)

	n, err := s.indexQueue.Len(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, int64(0))
}

func (s *CrawlerTestSuite) TestEnqueueFailureMarksNotQueued(c *check.C) {
	ctx := context.Background()
	const url = "https://example.test/unqueued"

	s.fetcher.pages[url] = []byte("<html><body>archived anyway</body></html>")
	s.indexQueue.FailPushes(errors.New("redis connection lost"))

	s.svc.processURL(ctx, url)

	doc, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	c.Assert(doc.Status, check.Equals, docstore.StatusCrawledNotQueued)

	// The archive record exists regardless.
	_, payload, err := warc.ReadRecord(
		filepath.Join(s.archiveDir, doc.FilePath), doc.Offset, doc.Length, 0,
	)
	c.Assert(err, check.IsNil)
	c.Assert(payload, check.DeepEquals, s.fetcher.pages[url])
}

func (s *CrawlerTestSuite) TestInvalidURLsDiscarded(c *check.C) {
	ctx := context.Background()

	for _, bad := range []string{"ftp://example.test/file", "http://x", "not a url at all"} {
		s.svc.processURL(ctx, bad)
	}

	_, err := s.store.Document(1)
	c.Assert(errors.Is(err, docstore.ErrNotFound), check.Equals, true)
}

func (s *CrawlerTestSuite) TestOutlinksEnqueued(c *check.C) {
	ctx := context.Background()
	const url = "https://example.test/index"

	s.svc.config.FollowLinks = true
	s.fetcher.pages[url] = []byte(
		`<html><body><a href="/next.html">next</a></body></html>`,
	)

	s.svc.processURL(ctx, url)

	link, err := s.crawlQueue.Pop(ctx)
	c.Assert(err, check.IsNil)
	c.Assert(link, check.Equals, "https://example.test/next.html")
}

func (s *CrawlerTestSuite) TestRunSeedsEmptyQueue(c *check.C) {
	s.svc.config.Seed = "https://example.test/seed"
	s.fetcher.pages["https://example.test/seed"] = []byte("<html><body>seed page</body></html>")

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	c.Assert(s.svc.Run(ctx), check.IsNil)

	doc, err := s.store.Document(1)
	c.Assert(err, check.IsNil)
	c.Assert(doc.URL, check.Equals, "https://example.test/seed")
	c.Assert(doc.Status, check.Equals, docstore.StatusCrawled)
}
