package crawler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/ferretsearch/ferret/docstore"
	"github.com/ferretsearch/ferret/queue"
)

// PrivateNetworkDetector is implemented by types that can detect whether a
// host resolves into a private network address. Crawling such hosts is a
// security risk.
type PrivateNetworkDetector interface {
	IsNetworkPrivate(host string) (bool, error)
}

// Fetcher is implemented by types that can retrieve the raw HTML content of
// a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArchiveWriter is implemented by types that can append a crawled page to
// the archive and report its locator.
type ArchiveWriter interface {
	WriteRecord(url string, payload []byte) (offset, length int64, err error)
}

// Config defines configurations for the crawler service.
type Config struct {
	// CrawlQueue is the queue of URLs awaiting a fetch.
	CrawlQueue queue.Queue

	// IndexQueue is the queue of document ids awaiting indexing.
	IndexQueue queue.Queue

	// DocStore is the document metadata store.
	DocStore docstore.Store

	// Archive receives the fetched pages.
	Archive ArchiveWriter

	// ArchiveFile is the basename recorded in each document's locator.
	ArchiveFile string

	// Fetcher retrieves page content. If not specified, an HTTP fetcher
	// with default settings will be used instead.
	Fetcher Fetcher

	// NetDetector rejects URLs that resolve to private networks. If not
	// specified, a default detector covering loopback, RFC1918, link-local
	// and unspecified ranges will be used instead.
	NetDetector PrivateNetworkDetector

	// BlockedCIDRs lists additional address ranges the default detector
	// refuses to crawl. Ignored when NetDetector is provided.
	BlockedCIDRs []string

	// Seed is pushed onto the crawl queue when it is empty at startup.
	Seed string

	// FollowLinks enables extraction of outlinks from crawled pages back
	// into the crawl queue.
	FollowLinks bool

	// NumWorkers is the number of concurrent fetch loops sharing the
	// archive writer and the metadata store.
	NumWorkers int

	// PollInterval is the sleep applied when the crawl queue is empty.
	PollInterval time.Duration

	// CrawlDelay is the per-host politeness interval between fetches.
	CrawlDelay time.Duration

	// EnqueueRetries bounds the attempts to enqueue an indexing job before
	// the document is marked crawled_not_queued.
	EnqueueRetries int

	// Clock generates time-related events. If not specified, the wall
	// clock will be used instead.
	Clock clock.Clock

	// Logger to use. If not defined, an output-discarding logger will be
	// used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.CrawlQueue == nil {
		err = multierror.Append(err, fmt.Errorf("crawl queue not provided"))
	}

	if config.IndexQueue == nil {
		err = multierror.Append(err, fmt.Errorf("index queue not provided"))
	}

	if config.DocStore == nil {
		err = multierror.Append(err, fmt.Errorf("document store not provided"))
	}

	if config.Archive == nil {
		err = multierror.Append(err, fmt.Errorf("archive writer not provided"))
	}

	if config.ArchiveFile == "" {
		err = multierror.Append(err, fmt.Errorf("archive file basename not provided"))
	}

	if config.Fetcher == nil {
		config.Fetcher = NewHTTPFetcher(DefaultFetchTimeout)
	}

	if config.NetDetector == nil {
		guard, guardErr := newAddrGuard(config.BlockedCIDRs...)
		if guardErr != nil {
			err = multierror.Append(err, guardErr)
		}

		config.NetDetector = guard
	}

	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}

	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	if config.CrawlDelay <= 0 {
		config.CrawlDelay = 1 * time.Second
	}

	if config.EnqueueRetries <= 0 {
		config.EnqueueRetries = 3
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
