package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ferretsearch/ferret/index/boltstore"
	"github.com/ferretsearch/ferret/internal/cliutil"
	"github.com/ferretsearch/ferret/queue"
	"github.com/ferretsearch/ferret/queue/redisqueue"
	"github.com/ferretsearch/ferret/ranker"
)

var (
	appName = "ferret-ranker"
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
		&cli.StringFlag{
			Name:    "listen-addr",
			Value:   ":5000",
			EnvVars: []string{"RANKER_LISTEN_ADDR"},
			Usage:   "Address to listen on for search requests",
		},
		&cli.IntFlag{
			Name:    "results-per-query",
			Value:   10,
			EnvVars: []string{"RESULTS_PER_QUERY"},
			Usage:   "Number of ranked results returned per query",
		},
		&cli.IntFlag{
			Name:    "max-snippet-length",
			Value:   160,
			EnvVars: []string{"MAX_SNIPPET_LENGTH"},
			Usage:   "Maximum snippet length in characters",
		},
		&cli.DurationFlag{
			Name:    "cache-ttl",
			Value:   5 * time.Minute,
			EnvVars: []string{"QUERY_CACHE_TTL"},
			Usage:   "Lifetime of one cached query result list",
		},
	)

	app.Action = execute

	return app
}

func execute(appCtx *cli.Context) error {
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	docStore, err := cliutil.ConnectDocStore(ctx, appCtx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = docStore.Close() }()

	idx, err := boltstore.NewReadOnlyStore(appCtx.String("index-db-path"))
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	// The query cache is optional: an unreachable Redis degrades to
	// cache-less serving rather than failing the whole service.
	var cache queue.Cache
	if redisClient, err := redisqueue.NewClient(ctx, cliutil.RedisAddr(appCtx)); err != nil {
		logger.WithField("err", err).Warn("query cache unavailable: serving without it")
	} else {
		defer func() { _ = redisClient.Close() }()
		cache = redisqueue.NewCache(redisClient, "query_cache:")
	}

	rankerSvc, err := ranker.New(ranker.Config{
		Index:         idx,
		DocStore:      docStore,
		ArchiveRoot:   appCtx.String("warc-base-path"),
		Cache:         cache,
		CacheTTL:      appCtx.Duration("cache-ttl"),
		ListenAddr:    appCtx.String("listen-addr"),
		TopK:          appCtx.Int("results-per-query"),
		MaxSnippetLen: appCtx.Int("max-snippet-length"),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	cliutil.CancelOnSignal(ctx, cancelFn, logger)

	return rankerSvc.Run(ctx)
}
