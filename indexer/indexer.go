/*
	Package indexer implements the worker that turns archived pages into
	inverted index postings. Jobs arrive as document ids on the indexing
	queue; for each job the worker reads the document's compressed record
	from the archive, extracts the visible text, tokenizes it and upserts
	the resulting term frequencies into the index.

	Indexing is idempotent: re-processing a document converges to the same
	posting lists and the same doc_length, which is what makes the queue's
	at-least-once delivery safe.
*/
package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ferretsearch/ferret/textproc"
	"github.com/ferretsearch/ferret/warc"
)

// Service runs the indexing worker loop.
type Service struct {
	config Config
}

// New creates and returns a fully configured indexer service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("indexer service: config validation failed: %w", err)
	}

	return &Service{config: config}, nil
}

// Run consumes indexing jobs until the context gets cancelled. A failure to
// index one document logs and advances to the next job.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.Info("started service")
	defer svc.config.Logger.Info("stopped service")

	for {
		job, err := svc.config.Queue.BPop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("indexer: queue pop failed: %w", err)
		}

		docID, err := strconv.ParseInt(job, 10, 64)
		if err != nil {
			svc.config.Logger.WithField("job", job).Warn("discarding malformed job")
			continue
		}

		if err := svc.indexDocument(ctx, docID); err != nil {
			svc.config.Logger.WithField("doc_id", docID).WithField("err", err).Error(
				"indexing failed: skipping document",
			)
		}
	}
}

// indexDocument processes a single document id end to end.
func (svc *Service) indexDocument(ctx context.Context, docID int64) error {
	loc, err := svc.config.DocStore.Locator(ctx, docID)
	if err != nil {
		return err
	}

	archivePath := filepath.Join(svc.config.ArchiveRoot, loc.FilePath)

	_, payload, err := warc.ReadRecord(
		archivePath, loc.Offset, loc.Length, svc.config.MaxDecompressedSize,
	)
	if err != nil {
		return err
	}

	text, title := textproc.ExtractText(payload)

	tokens := textproc.Tokenize(text)
	freqs, total := textproc.TermFrequencies(tokens)

	if err := svc.config.Index.AddBatch(docID, freqs); err != nil {
		return err
	}

	// doc_length is the pre-deduplication token count.
	if err := svc.config.DocStore.SetDocLength(ctx, docID, total); err != nil {
		return err
	}

	if title != "" {
		if err := svc.config.DocStore.SetTitle(ctx, docID, title); err != nil {
			return err
		}
	}

	svc.config.Logger.WithField("doc_id", docID).WithField("tokens", total).Info(
		"indexed document",
	)

	return nil
}
