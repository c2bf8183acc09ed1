package crawler

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout bounds one HTTP GET including redirects.
	DefaultFetchTimeout = 10 * time.Second

	// defaultUserAgent identifies the crawler to origin servers.
	defaultUserAgent = "ferretbot/1.0 (+https://github.com/ferretsearch/ferret)"

	// maxResponseBody caps how much of a response is read into memory.
	maxResponseBody = 10 << 20 // 10 MiB
)

// Static and compile-time check to ensure httpFetcher implements the
// Fetcher interface.
var _ Fetcher = (*httpFetcher)(nil)

// httpFetcher retrieves pages with a plain HTTP GET: redirects are followed,
// TLS peer and host verification stay enabled and only successful HTML
// responses are accepted.
type httpFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher returns a Fetcher backed by an http.Client with the given
// per-request timeout.
func NewHTTPFetcher(timeout time.Duration) Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &httpFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					// Peer and host verification stay on.
					InsecureSkipVerify: false,
				},
			},
		},
		userAgent: defaultUserAgent,
	}
}

// Fetch performs the GET request and returns the response body.
func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Only allow 2xx responses.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}

	// Skip non-HTML payloads.
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("get %s: unsupported content type %q", url, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	return body, nil
}
