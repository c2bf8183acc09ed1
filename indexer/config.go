package indexer

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ferretsearch/ferret/docstore"
	"github.com/ferretsearch/ferret/index"
	"github.com/ferretsearch/ferret/queue"
	"github.com/ferretsearch/ferret/warc"
)

// Config defines configurations for the indexer service.
type Config struct {
	// Queue is the queue of document ids awaiting indexing.
	Queue queue.Queue

	// DocStore is the document metadata store.
	DocStore docstore.Store

	// Index is the inverted index the postings are written to.
	Index index.Store

	// ArchiveRoot is joined with each document's archive file basename to
	// form the full archive path.
	ArchiveRoot string

	// MaxDecompressedSize bounds the decompressed size of one record. If
	// not specified, warc.DefaultMaxDecompressedSize will be used instead.
	MaxDecompressedSize int64

	// Logger to use. If not defined, an output-discarding logger will be
	// used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Queue == nil {
		err = multierror.Append(err, fmt.Errorf("indexing queue not provided"))
	}

	if config.DocStore == nil {
		err = multierror.Append(err, fmt.Errorf("document store not provided"))
	}

	if config.Index == nil {
		err = multierror.Append(err, fmt.Errorf("index store not provided"))
	}

	if config.ArchiveRoot == "" {
		err = multierror.Append(err, fmt.Errorf("archive root not provided"))
	}

	if config.MaxDecompressedSize <= 0 {
		config.MaxDecompressedSize = warc.DefaultMaxDecompressedSize
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
