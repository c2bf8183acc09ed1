package warc

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// DefaultMaxDecompressedSize bounds how large a single record may grow when
// decompressed. Records beyond the limit are rejected with ErrTooLarge.
const DefaultMaxDecompressedSize = 100 << 20 // 100 MiB

// ReadSlice reads exactly length bytes at offset from the archive file at
// path. A short read is an error: the locator promises a complete gzip
// member at that position.
func ReadSlice(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read record at %d+%d: %w", offset, length, err)
	}

	return buf, nil
}

// DecompressRecord gunzips one archived record slice. maxSize bounds the
// decompressed output; zero selects DefaultMaxDecompressedSize.
func DecompressRecord(slice []byte, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxDecompressedSize
	}

	zr, err := gzip.NewReader(bytes.NewReader(slice))
	if err != nil {
		return nil, fmt.Errorf("decompress record: %w", err)
	}
	defer zr.Close()

	// Read one byte past the limit to distinguish an at-limit record from
	// an oversize one.
	out, err := io.ReadAll(io.LimitReader(zr, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompress record: %w", err)
	}
	if int64(len(out)) > maxSize {
		return nil, ErrTooLarge
	}

	return out, nil
}

// ReadRecord is the composed random-access read path used by the indexer and
// the ranker: slice, decompress, split.
func ReadRecord(path string, offset, length, maxSize int64) (*Header, []byte, error) {
	slice, err := ReadSlice(path, offset, length)
	if err != nil {
		return nil, nil, err
	}

	record, err := DecompressRecord(slice, maxSize)
	if err != nil {
		return nil, nil, err
	}

	headerBlock, payload, err := SplitRecord(record)
	if err != nil {
		return nil, nil, err
	}

	header, err := ParseHeader(headerBlock)
	if err != nil {
		return nil, nil, err
	}

	return header, payload, nil
}
