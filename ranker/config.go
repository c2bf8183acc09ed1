package ranker

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/ferretsearch/ferret/docstore"
	"github.com/ferretsearch/ferret/index"
	"github.com/ferretsearch/ferret/queue"
)

// Config defines configurations for the ranking service.
type Config struct {
	// Index is the inverted index posting lists are read from.
	Index index.Store

	// DocStore is the document metadata store.
	DocStore docstore.Store

	// ArchiveRoot is joined with each document's archive file basename when
	// re-reading page content for snippet generation. When empty, results
	// carry no snippets.
	ArchiveRoot string

	// Cache, when provided, stores serialized results per normalized query.
	Cache queue.Cache

	// CacheTTL is the lifetime of one cached result list.
	CacheTTL time.Duration

	// ListenAddr is the address the HTTP service listens on.
	ListenAddr string

	// TopK is the number of results returned per query.
	TopK int

	// MaxSnippetLen is the maximum snippet length in characters.
	MaxSnippetLen int

	// StatsTTL bounds how long the corpus stats (total documents, average
	// document length) are reused before being recomputed.
	StatsTTL time.Duration

	// RequestTimeout caps the total handling time of one search request.
	RequestTimeout time.Duration

	// Clock generates time-related events. If not specified, the wall
	// clock will be used instead.
	Clock clock.Clock

	// Logger to use. If not defined, an output-discarding logger will be
	// used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Index == nil {
		err = multierror.Append(err, fmt.Errorf("index store not provided"))
	}

	if config.DocStore == nil {
		err = multierror.Append(err, fmt.Errorf("document store not provided"))
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":5000"
	}

	if config.TopK <= 0 {
		config.TopK = 10
	}

	if config.MaxSnippetLen <= 0 {
		config.MaxSnippetLen = 160
	}

	if config.StatsTTL <= 0 {
		config.StatsTTL = 30 * time.Second
	}

	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 10 * time.Second
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
