package postgres

import "context"

// schema is the documents table DDL. Migration tooling owns production
// schemas; EnsureSchema exists for local runs and test databases.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id SERIAL PRIMARY KEY,
	url TEXT UNIQUE NOT NULL,
	status VARCHAR(20) DEFAULT 'pending',
	crawled_at TIMESTAMP DEFAULT now(),
	file_path TEXT,
	"offset" BIGINT,
	length INT,
	content_hash VARCHAR(64),
	title TEXT,
	doc_length INT
);

CREATE INDEX IF NOT EXISTS documents_url_idx ON documents (url);
CREATE INDEX IF NOT EXISTS documents_status_idx ON documents (status);
`

// EnsureSchema creates the documents table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)

	return err
}
