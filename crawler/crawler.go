/*
	Package crawler implements the queue-driven crawl worker. Each worker
	pops a URL from the crawl queue, reserves a document id for it, fetches
	the page over HTTP, appends the response to the WARC archive, records
	the archive locator in the metadata store and enqueues an indexing job.

	Multiple workers may run concurrently within one service and across
	processes: the archive writer serializes appends internally and the
	metadata store's unique constraint on the URL arbitrates duplicate
	sightings.
*/
package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ferretsearch/ferret/docstore"
	"github.com/ferretsearch/ferret/queue"
)

// minURLLength rejects obviously truncated queue entries; the shortest
// crawlable URL is on the order of "http://a.bc".
const minURLLength = 10

// Service runs the crawl workers.
type Service struct {
	config  Config
	limiter *hostLimiter
	links   *linkExtractor
}

// New creates and returns a fully configured crawler service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("crawler service: config validation failed: %w", err)
	}

	return &Service{
		config:  config,
		limiter: newHostLimiter(config.CrawlDelay),
		links:   newLinkExtractor(config.NetDetector),
	}, nil
}

// Run seeds the crawl queue if needed, then executes the configured number
// of worker loops until the context gets cancelled.
func (svc *Service) Run(ctx context.Context) error {
	if err := svc.seedQueue(ctx); err != nil {
		return err
	}

	svc.config.Logger.WithField("num_workers", svc.config.NumWorkers).Info(
		"started service",
	)
	defer svc.config.Logger.Info("stopped service")

	var wg sync.WaitGroup
	wg.Add(svc.config.NumWorkers)

	for i := 0; i < svc.config.NumWorkers; i++ {
		go func() {
			defer wg.Done()
			svc.workerLoop(ctx)
		}()
	}

	wg.Wait()

	return nil
}

// seedQueue pushes the configured seed URL when the crawl queue is empty at
// startup, so a fresh deployment has something to do.
func (svc *Service) seedQueue(ctx context.Context) error {
	if svc.config.Seed == "" {
		return nil
	}

	n, err := svc.config.CrawlQueue.Len(ctx)
	if err != nil {
		return fmt.Errorf("crawler: unable to inspect crawl queue: %w", err)
	}
	if n > 0 {
		return nil
	}

	svc.config.Logger.WithField("seed", svc.config.Seed).Info(
		"crawl queue empty: seeding",
	)

	if err := svc.config.CrawlQueue.Push(ctx, svc.config.Seed); err != nil {
		return fmt.Errorf("crawler: unable to seed crawl queue: %w", err)
	}

	return nil
}

func (svc *Service) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rawURL, err := svc.config.CrawlQueue.Pop(ctx)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			svc.sleep(ctx, svc.config.PollInterval)
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}

			svc.config.Logger.WithField("err", err).Error("crawl queue pop failed")
			svc.sleep(ctx, svc.config.PollInterval)
			continue
		}

		svc.processURL(ctx, rawURL)
	}
}

// processURL drives one URL through the reserve/fetch/archive/enqueue
// sequence. Failures are terminal for the URL, never for the loop.
func (svc *Service) processURL(ctx context.Context, rawURL string) {
	logger := svc.config.Logger.WithField("url", rawURL)

	host, ok := svc.validateURL(rawURL)
	if !ok {
		logger.Debug("discarding invalid crawl target")
		return
	}

	docID, err := svc.config.DocStore.Reserve(ctx, rawURL)
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			logger.Debug("skipping duplicate url")
		} else {
			logger.WithField("err", err).Error("unable to reserve document")
		}

		return
	}

	logger = logger.WithField("doc_id", docID)

	if err := svc.limiter.Wait(ctx, host); err != nil {
		// Shutting down mid-wait; the row stays in processing and is
		// observable as such.
		return
	}

	body, err := svc.config.Fetcher.Fetch(ctx, rawURL)
	if err != nil || len(body) == 0 {
		logger.WithField("err", err).Warn("fetch failed")

		if markErr := svc.config.DocStore.MarkFailed(ctx, docID); markErr != nil {
			logger.WithField("err", markErr).Error("unable to mark document failed")
		}

		return
	}

	offset, length, err := svc.config.Archive.WriteRecord(rawURL, body)
	if err != nil {
		// Not archived, so not crawled: leave the row in processing.
		logger.WithField("err", err).Error("archive write failed")
		return
	}

	hash := sha256.Sum256(body)

	err = svc.config.DocStore.MarkCrawled(ctx, docID, docstore.Locator{
		FilePath: svc.config.ArchiveFile,
		Offset:   offset,
		Length:   length,
	}, hex.EncodeToString(hash[:]))
	if err != nil {
		logger.WithField("err", err).Error("unable to mark document crawled")
		return
	}

	svc.enqueueIndexJob(ctx, docID, logger)

	if svc.config.FollowLinks {
		svc.enqueueOutlinks(ctx, rawURL, body, logger)
	}

	logger.WithField("bytes", len(body)).Info("crawled document")
}

// validateURL applies the cheap syntactic checks plus the private-network
// filter, and returns the target host on success.
func (svc *Service) validateURL(rawURL string) (string, bool) {
	if len(rawURL) < minURLLength {
		return "", false
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	host := parsed.Hostname()

	isPrivate, err := svc.config.NetDetector.IsNetworkPrivate(host)
	if err != nil || isPrivate {
		return "", false
	}

	return host, true
}

// enqueueIndexJob pushes the document id onto the indexing queue with
// bounded retry, falling back to the crawled_not_queued status when every
// attempt fails.
func (svc *Service) enqueueIndexJob(ctx context.Context, docID int64, logger *logrus.Entry) {
	job := strconv.FormatInt(docID, 10)

	var err error
	for attempt := 1; attempt <= svc.config.EnqueueRetries; attempt++ {
		if err = svc.config.IndexQueue.Push(ctx, job); err == nil {
			return
		}

		logger.WithField("attempt", attempt).WithField("err", err).Warn(
			"index enqueue failed",
		)
	}

	if markErr := svc.config.DocStore.MarkNotQueued(ctx, docID); markErr != nil {
		logger.WithField("err", markErr).Error("unable to mark document not queued")
	}
}

// enqueueOutlinks pushes the page's followable links back onto the crawl
// queue. Duplicate URLs are filtered later by Reserve, so re-discovery is
// harmless.
func (svc *Service) enqueueOutlinks(ctx context.Context, pageURL string, body []byte, logger *logrus.Entry) {
	links := svc.links.Extract(pageURL, body)

	for _, link := range links {
		if err := svc.config.CrawlQueue.Push(ctx, link); err != nil {
			logger.WithField("err", err).Warn("unable to enqueue outlink")
			return
		}
	}

	if len(links) > 0 {
		logger.WithField("outlinks", len(links)).Debug("enqueued outlinks")
	}
}

// sleep waits for d or until the context is done, whichever comes first.
func (svc *Service) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-svc.config.Clock.After(d):
	}
}
