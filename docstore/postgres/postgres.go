// Package postgres implements the document metadata store on top of a
// PostgreSQL database using the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ferretsearch/ferret/docstore"
)

var (
	reserveQuery = `
				INSERT INTO documents (url, status)
				VALUES ($1, 'processing')
				ON CONFLICT (url) DO NOTHING
				RETURNING id
				`
	markCrawledQuery = `
				UPDATE documents
				SET status = 'crawled', crawled_at = NOW(),
					file_path = $1, "offset" = $2, length = $3,
					content_hash = NULLIF($4, '')
				WHERE id = $5
				`
	markStatusQuery = "UPDATE documents SET status = $1 WHERE id = $2"

	locatorQuery = `SELECT file_path, "offset", length FROM documents WHERE id = $1`

	setDocLengthQuery = "UPDATE documents SET doc_length = $1 WHERE id = $2"

	setTitleQuery = "UPDATE documents SET title = $1 WHERE id = $2"

	metadataQuery = `
				SELECT id, url, COALESCE(title, ''), COALESCE(doc_length, 0)
				FROM documents WHERE id = ANY($1)
				`
	statsQuery = `
				SELECT COUNT(*), COALESCE(AVG(doc_length), 0)
				FROM documents
				`
)

// Static and compile-time check to ensure Store implements the
// docstore.Store interface.
var _ docstore.Store = (*Store)(nil)

// Store implements docstore.Store backed by a PostgreSQL instance.
type Store struct {
	db *sql.DB
}

// NewStore connects to the PostgreSQL instance identified by dsn and
// verifies the connection with a ping.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Store{db: db}, nil
}

// Close terminates the connection to the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reserve inserts a processing row for url and returns its id, or
// ErrDuplicate when the unique constraint on url fires. The conflict
// handling rides on a single INSERT ... ON CONFLICT statement.
func (s *Store) Reserve(ctx context.Context, url string) (int64, error) {
	var id int64

	err := s.db.QueryRowContext(ctx, reserveQuery, url).Scan(&id)
	if err == sql.ErrNoRows {
		// ON CONFLICT DO NOTHING yields no row for duplicates.
		return 0, fmt.Errorf("reserve %q: %w", url, docstore.ErrDuplicate)
	}
	if err != nil {
		return 0, fmt.Errorf("reserve %q: %w", url, err)
	}

	return id, nil
}

// MarkCrawled records the archive locator and flips the row to crawled.
func (s *Store) MarkCrawled(
	ctx context.Context, id int64, loc docstore.Locator, contentHash string,
) error {

	_, err := s.db.ExecContext(
		ctx, markCrawledQuery, loc.FilePath, loc.Offset, loc.Length, contentHash, id,
	)
	if err != nil {
		return fmt.Errorf("mark crawled %d: %w", id, err)
	}

	return nil
}

// MarkFailed flips the row to the error status.
func (s *Store) MarkFailed(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(
		ctx, markStatusQuery, docstore.StatusError, id,
	); err != nil {
		return fmt.Errorf("mark failed %d: %w", id, err)
	}

	return nil
}

// MarkNotQueued flips the row to crawled_not_queued.
func (s *Store) MarkNotQueued(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(
		ctx, markStatusQuery, docstore.StatusCrawledNotQueued, id,
	); err != nil {
		return fmt.Errorf("mark not queued %d: %w", id, err)
	}

	return nil
}

// Locator returns the archive locator recorded for a crawled document.
func (s *Store) Locator(ctx context.Context, id int64) (docstore.Locator, error) {
	var (
		loc      docstore.Locator
		filePath sql.NullString
		offset   sql.NullInt64
		length   sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, locatorQuery, id).Scan(&filePath, &offset, &length)
	if err == sql.ErrNoRows {
		return loc, fmt.Errorf("locator %d: %w", id, docstore.ErrNotFound)
	}
	if err != nil {
		return loc, fmt.Errorf("locator %d: %w", id, err)
	}

	loc.FilePath = filePath.String
	loc.Offset = offset.Int64
	loc.Length = length.Int64

	return loc, nil
}

// SetDocLength records the canonical token count for a document.
func (s *Store) SetDocLength(ctx context.Context, id int64, n int) error {
	if _, err := s.db.ExecContext(ctx, setDocLengthQuery, n, id); err != nil {
		return fmt.Errorf("set doc length %d: %w", id, err)
	}

	return nil
}

// SetTitle records the extracted page title for a document.
func (s *Store) SetTitle(ctx context.Context, id int64, title string) error {
	if _, err := s.db.ExecContext(ctx, setTitleQuery, title, id); err != nil {
		return fmt.Errorf("set title %d: %w", id, err)
	}

	return nil
}

// Metadata fetches url/title/doc_length for a batch of ids with one query.
func (s *Store) Metadata(
	ctx context.Context, ids []int64,
) (map[int64]docstore.DocMeta, error) {

	meta := make(map[int64]docstore.DocMeta, len(ids))
	if len(ids) == 0 {
		return meta, nil
	}

	rows, err := s.db.QueryContext(ctx, metadataQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id int64
			m  docstore.DocMeta
		)
		if err := rows.Scan(&id, &m.URL, &m.Title, &m.DocLength); err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}

		meta[id] = m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}

	return meta, nil
}

// Stats returns the corpus aggregates used by BM25 scoring.
func (s *Store) Stats(ctx context.Context) (docstore.Stats, error) {
	var stats docstore.Stats

	err := s.db.QueryRowContext(ctx, statsQuery).Scan(
		&stats.TotalDocs, &stats.AvgDocLength,
	)
	if err != nil {
		return stats, fmt.Errorf("stats: %w", err)
	}

	return stats, nil
}
