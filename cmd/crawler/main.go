package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ferretsearch/ferret/crawler"
	"github.com/ferretsearch/ferret/internal/cliutil"
	"github.com/ferretsearch/ferret/queue/redisqueue"
	"github.com/ferretsearch/ferret/warc"
)

var (
	appName = "ferret-crawler"
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
			Name:    "seed-url",
			Value:   "https://en.wikipedia.org/wiki/Main_Page",
			EnvVars: []string{"SEED_URL"},
			Usage:   "URL pushed onto the crawl queue when it is empty at startup",
		},
		&cli.StringFlag{
			Name:    "archive-file",
			Value:   "crawl.warc.gz",
			EnvVars: []string{"WARC_ARCHIVE_FILE"},
			Usage:   "Basename of the WARC archive file this instance appends to",
		},
		&cli.IntFlag{
			Name:    "num-of-workers",
			Value:   1,
			EnvVars: []string{"NUM_OF_WORKERS"},
			Usage:   "Number of concurrent fetch workers",
		},
		&cli.DurationFlag{
			Name:    "crawl-delay",
			Value:   time.Second,
			EnvVars: []string{"CRAWL_DELAY"},
			Usage:   "Politeness interval between fetches against one host",
		},
		&cli.DurationFlag{
			Name:    "queue-poll-interval",
			Value:   5 * time.Second,
			EnvVars: []string{"QUEUE_POLL_INTERVAL"},
			Usage:   "Sleep between polls of an empty crawl queue",
		},
		&cli.DurationFlag{
			Name:    "fetch-timeout",
			Value:   crawler.DefaultFetchTimeout,
			EnvVars: []string{"FETCH_TIMEOUT"},
			Usage:   "Timeout for one HTTP fetch including redirects",
		},
		&cli.BoolFlag{
			Name:    "follow-links",
			Value:   true,
			EnvVars: []string{"FOLLOW_LINKS"},
			Usage:   "Extract outlinks from crawled pages back into the crawl queue",
		},
		&cli.StringSliceFlag{
			Name:    "blocked-cidrs",
			EnvVars: []string{"BLOCKED_CIDRS"},
			Usage:   "Additional CIDR ranges the crawler must never fetch from",
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

	if err := docStore.EnsureSchema(ctx); err != nil {
		return err
	}

	archivePath := filepath.Join(
		appCtx.String("warc-base-path"), appCtx.String("archive-file"),
	)
	archive, err := warc.OpenWriter(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	crawlerSvc, err := crawler.New(crawler.Config{
		CrawlQueue:     redisqueue.NewQueue(redisClient, "crawl_queue"),
		IndexQueue:     redisqueue.NewQueue(redisClient, "indexing_queue"),
		DocStore:       docStore,
		Archive:        archive,
		ArchiveFile:    appCtx.String("archive-file"),
		Fetcher:        crawler.NewHTTPFetcher(appCtx.Duration("fetch-timeout")),
		Seed:           appCtx.String("seed-url"),
		FollowLinks:    appCtx.Bool("follow-links"),
		BlockedCIDRs:   appCtx.StringSlice("blocked-cidrs"),
		NumWorkers:     appCtx.Int("num-of-workers"),
		PollInterval:   appCtx.Duration("queue-poll-interval"),
		CrawlDelay:     appCtx.Duration("crawl-delay"),
		EnqueueRetries: 3,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	cliutil.CancelOnSignal(ctx, cancelFn, logger)

	return crawlerSvc.Run(ctx)
}
