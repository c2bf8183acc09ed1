/*
	Package docstore defines the document metadata model shared by the
	crawler, the indexer and the ranker, together with the Store interface
	implemented by the persistent (postgres) and in-memory stores.

	A document row is created once per unique URL by the crawler and then
	mutated along the pipeline: the crawler records the archive locator, the
	indexer records the token count and page title. Rows are never deleted by
	the pipeline.
*/
package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicate is returned by Reserve when the URL already has a
	// document row.
	ErrDuplicate = errors.New("document already reserved")

	// ErrNotFound is returned when a document lookup by id fails.
	ErrNotFound = errors.New("document not found")
)

// Status enumerates the lifecycle states of a document row.
type Status string

const (
	// StatusPending is the schema default; rows created through Reserve
	// start at StatusProcessing instead.
	StatusPending Status = "pending"

	// StatusProcessing marks a document that has been reserved by a
	// crawler worker but not yet archived.
	StatusProcessing Status = "processing"

	// StatusCrawled marks a document whose archive locator is valid.
	StatusCrawled Status = "crawled"

	// StatusCrawledNotQueued marks a crawled document whose indexing job
	// could not be enqueued.
	StatusCrawledNotQueued Status = "crawled_not_queued"

	// StatusError marks a document whose fetch failed.
	StatusError Status = "error"
)

// Document mirrors one row of the documents table.
type Document struct {
	ID          int64
	URL         string
	Status      Status
	CrawledAt   time.Time
	FilePath    string
	Offset      int64
	Length      int64
	ContentHash string
	Title       string

	// DocLength is the token count produced by the canonical tokenizer.
	// Zero until the document has been indexed; HasDocLength distinguishes
	// an indexed empty document from a not-yet-indexed one.
	DocLength    int
	HasDocLength bool
}

// Locator identifies one compressed record inside an archive file. FilePath
// is a basename; callers join it with their configured archive root.
type Locator struct {
	FilePath string
	Offset   int64
	Length   int64
}

// DocMeta is the subset of document fields the ranker joins into results.
type DocMeta struct {
	URL       string
	Title     string
	DocLength int
}

// Stats carries the corpus-wide aggregates used by BM25 scoring.
type Stats struct {
	// TotalDocs is the total number of document rows.
	TotalDocs int64

	// AvgDocLength is the mean doc_length over indexed documents. Zero when
	// nothing has been indexed yet.
	AvgDocLength float64
}

// Store is implemented by document metadata stores.
type Store interface {
	// Reserve inserts a new document row for url with status processing and
	// returns its assigned id. It returns ErrDuplicate, without mutating
	// anything, when a row for url already exists. The insert and its
	// conflict handling are a single atomic statement.
	Reserve(ctx context.Context, url string) (int64, error)

	// MarkCrawled transitions a document from processing to crawled and
	// records its archive locator and content hash.
	MarkCrawled(ctx context.Context, id int64, loc Locator, contentHash string) error

	// MarkFailed transitions a document to the error status.
	MarkFailed(ctx context.Context, id int64) error

	// MarkNotQueued transitions a crawled document to crawled_not_queued.
	MarkNotQueued(ctx context.Context, id int64) error

	// Locator returns the archive locator for a crawled document.
	Locator(ctx context.Context, id int64) (Locator, error)

	// SetDocLength records the canonical token count for a document.
	SetDocLength(ctx context.Context, id int64, n int) error

	// SetTitle records the extracted page title for a document.
	SetTitle(ctx context.Context, id int64, title string) error

	// Metadata fetches url/title/doc_length for a batch of ids in a single
	// query. Ids without a row are absent from the returned map.
	Metadata(ctx context.Context, ids []int64) (map[int64]DocMeta, error)

	// Stats returns corpus-wide aggregates for scoring.
	Stats(ctx context.Context) (Stats, error)

	// Close releases the store's resources.
	Close() error
}
