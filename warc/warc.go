/*
	Package warc implements the append-only crawl archive used by the ferret
	pipeline. An archive file is a sequence of concatenated, individually
	gzip-compressed WARC response records. Each record is independently
	decompressible given its (offset, length) locator, which the crawler
	stores in the metadata store at write time.
*/
package warc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// headerDelimiter separates the WARC header block from the HTTP payload
	// and also terminates the record.
	headerDelimiter = "\r\n\r\n"

	warcDateLayout = "2006-01-02T15:04:05Z"
)

var (
	// ErrMalformedRecord is returned when a decompressed record is missing
	// the header/payload delimiter.
	ErrMalformedRecord = errors.New("malformed WARC record: missing header delimiter")

	// ErrTooLarge is returned when a record decompresses beyond the
	// configured size limit.
	ErrTooLarge = errors.New("WARC record exceeds maximum decompressed size")
)

// Header describes the metadata block of a single WARC response record.
type Header struct {
	// TargetURI is the URL the archived HTTP response was retrieved from.
	TargetURI string

	// Date is the UTC capture time.
	Date time.Time

	// RecordID is the urn:uuid identifier assigned at write time.
	RecordID string

	// ContentLength is the byte length of the uncompressed payload.
	ContentLength int
}

// buildHeader renders the header block for a response record, terminated by
// a blank line.
func buildHeader(targetURI string, contentLength int, now time.Time) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "WARC/1.0\r\n")
	fmt.Fprintf(&b, "WARC-Type: response\r\n")
	fmt.Fprintf(&b, "WARC-Target-URI: %s\r\n", targetURI)
	fmt.Fprintf(&b, "WARC-Date: %s\r\n", now.UTC().Format(warcDateLayout))
	fmt.Fprintf(&b, "WARC-Record-ID: <urn:uuid:%s>\r\n", uuid.New())
	fmt.Fprintf(&b, "Content-Type: application/http; msgtype=response\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", contentLength)
	fmt.Fprintf(&b, "\r\n")

	return b.Bytes()
}

// SplitRecord separates a decompressed record into its header block and
// payload. The trailing record delimiter is stripped from the payload when
// present.
func SplitRecord(record []byte) (header []byte, payload []byte, err error) {
	i := bytes.Index(record, []byte(headerDelimiter))
	if i == -1 {
		return nil, nil, ErrMalformedRecord
	}

	header = record[:i]
	payload = record[i+len(headerDelimiter):]
	payload = bytes.TrimSuffix(payload, []byte(headerDelimiter))

	return header, payload, nil
}

// ParseHeader decodes the header block of a record. Unknown header lines are
// ignored so that records written by future versions remain readable.
func ParseHeader(block []byte) (*Header, error) {
	h := new(Header)

	scanner := bufio.NewScanner(bytes.NewReader(block))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line == "WARC/1.0" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "WARC-Target-URI":
			h.TargetURI = value
		case "WARC-Date":
			t, err := time.Parse(warcDateLayout, value)
			if err != nil {
				return nil, fmt.Errorf("parse WARC-Date: %w", err)
			}
			h.Date = t
		case "WARC-Record-ID":
			h.RecordID = strings.Trim(value, "<>")
		case "Content-Length":
			if _, err := fmt.Sscanf(value, "%d", &h.ContentLength); err != nil {
				return nil, fmt.Errorf("parse Content-Length: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return h, nil
}
