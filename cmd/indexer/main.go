package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ferretsearch/ferret/index/boltstore"
	"github.com/ferretsearch/ferret/indexer"
	"github.com/ferretsearch/ferret/internal/cliutil"
	"github.com/ferretsearch/ferret/queue/redisqueue"
	"github.com/ferretsearch/ferret/warc"
)

var (
	appName = "ferret-indexer"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"sha":  appSHA,
		"host": host,
	})

	if err := configureApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Version = appSHA
	app.Flags = append(cliutil.InfraFlags(),
		&cli.StringFlag{
			Name:    "index-db-path",
			Value:   "/shared_data/search_index.db",
			EnvVars: []string{"INDEX_DB_PATH", "ROCKSDB_PATH"},
			Usage:   "Path of the inverted index database file",
		},
		&cli.Int64Flag{
			Name:    "max-decompressed-size",
			Value:   warc.DefaultMaxDecompressedSize,
			EnvVars: []string{"MAX_DECOMPRESSED_SIZE"},
			Usage:   "Maximum decompressed size of one archive record in bytes",
		},
	)

	app.Action = execute

	return app
}

func execute(appCtx *cli.Context) error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	redisClient, err := redisqueue.NewClient(ctx, cliutil.RedisAddr(appCtx))
	if err != nil {
		// Redis connection failures are fatal at startup.
		return err
	}
	defer func() { _ = redisClient.Close() }()

	docStore, err := cliutil.ConnectDocStore(ctx, appCtx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = docStore.Close() }()

	idx, err := boltstore.NewStore(appCtx.String("index-db-path"))
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	indexerSvc, err := indexer.New(indexer.Config{
		Queue:               redisqueue.NewQueue(redisClient, "indexing_queue"),
		DocStore:            docStore,
		Index:               idx,
		ArchiveRoot:         appCtx.String("warc-base-path"),
		MaxDecompressedSize: appCtx.Int64("max-decompressed-size"),
		Logger:              logger,
	})
	if err != nil {
		return err
	}

	cliutil.CancelOnSignal(ctx, cancelFn, logger)

	return indexerSvc.Run(ctx)
}
