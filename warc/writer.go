package warc

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"sync"
	"time"
)

// Writer appends gzip-compressed WARC response records to a single archive
// file. It is safe for concurrent use: calls are serialized so that the
// (offset, length) pair returned by WriteRecord always matches what a reader
// will find at that offset.
type Writer struct {
	mu   sync.Mutex
	file *os.File

	// now is overridable by tests that need deterministic capture dates.
	now func() time.Time
}

// OpenWriter opens the archive file at path for appending, creating it if
// necessary. Exactly one writer should own a given archive file.
func OpenWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return &Writer{file: f, now: time.Now}, nil
}

// WriteRecord compresses one WARC response record for url wrapping payload
// and appends it to the archive. It returns the byte offset at which the
// gzip member begins and the member's compressed length. When an error is
// returned the record must be considered not written.
func (w *Writer) WriteRecord(url string, payload []byte) (offset, length int64, err error) {
	header := buildHeader(url, len(payload), w.now())

	var record bytes.Buffer
	record.Grow(len(header) + len(payload) + len(headerDelimiter))
	record.Write(header)
	record.Write(payload)
	record.WriteString(headerDelimiter)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err = zw.Write(record.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("compress record: %w", err)
	}
	if err = zw.Close(); err != nil {
		return 0, 0, fmt.Errorf("compress record: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	stat, err := w.file.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("stat archive: %w", err)
	}
	offset = stat.Size()

	if _, err = w.file.Write(compressed.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("write record: %w", err)
	}

	// The locator is handed to the metadata store right after this call
	// returns, so the bytes must be durable first.
	if err = w.file.Sync(); err != nil {
		return 0, 0, fmt.Errorf("sync archive: %w", err)
	}

	return offset, int64(compressed.Len()), nil
}

// Close closes the underlying archive file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}
