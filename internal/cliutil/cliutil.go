// Package cliutil holds the infrastructure wiring shared by the ferret
// binaries: the common environment-backed flags, the bounded-retry database
// connector and the signal handler that cancels the root context.
package cliutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ferretsearch/ferret/docstore/postgres"
)

// InfraFlags returns the flags every binary shares for reaching Redis, the
// metadata database and the archive volume. Each flag reads its value from
// the environment, keeping the deployment surface env-driven.
func InfraFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "redis-host",
			Value:   "localhost",
			EnvVars: []string{"REDIS_HOST"},
			Usage:   "Redis host (port 6379 assumed unless specified)",
		},
		&cli.StringFlag{
			Name:    "db-conn-str",
			EnvVars: []string{"DB_CONN_STR"},
			Usage:   "Full database connection string; overrides the discrete db-* flags",
		},
		&cli.StringFlag{
			Name:    "db-host",
			Value:   "localhost",
			EnvVars: []string{"DB_HOST"},
			Usage:   "Database host",
		},
		&cli.StringFlag{
			Name:    "db-port",
			Value:   "5432",
			EnvVars: []string{"DB_PORT"},
			Usage:   "Database port",
		},
		&cli.StringFlag{
			Name:    "db-name",
			Value:   "search_engine",
			EnvVars: []string{"DB_NAME"},
			Usage:   "Database name",
		},
		&cli.StringFlag{
			Name:    "db-user",
			Value:   "admin",
			EnvVars: []string{"DB_USER"},
			Usage:   "Database user",
		},
		&cli.StringFlag{
			Name:    "db-pass",
			EnvVars: []string{"DB_PASS"},
			Usage:   "Database password",
		},
		&cli.IntFlag{
			Name:    "db-connect-retries",
			Value:   10,
			EnvVars: []string{"DB_CONNECT_RETRIES"},
			Usage:   "Connection attempts before giving up on the database",
		},
		&cli.DurationFlag{
			Name:    "db-connect-backoff",
			Value:   5 * time.Second,
			EnvVars: []string{"DB_CONNECT_BACKOFF"},
			Usage:   "Sleep between database connection attempts",
		},
		&cli.StringFlag{
			Name:    "warc-base-path",
			Value:   "/shared_data",
			EnvVars: []string{"WARC_BASE_PATH"},
			Usage:   "Directory holding the WARC archive files",
		},
	}
}

// RedisAddr resolves the redis-host flag into a host:port address.
func RedisAddr(appCtx *cli.Context) string {
	host := appCtx.String("redis-host")
	if !strings.Contains(host, ":") {
		host += ":6379"
	}

	return host
}

// DatabaseDSN builds the connection string from the db-* flags, unless a
// full db-conn-str was provided.
func DatabaseDSN(appCtx *cli.Context) string {
	if dsn := appCtx.String("db-conn-str"); dsn != "" {
		return dsn
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		url.QueryEscape(appCtx.String("db-user")),
		url.QueryEscape(appCtx.String("db-pass")),
		appCtx.String("db-host"),
		appCtx.String("db-port"),
		appCtx.String("db-name"),
	)
}

// ConnectDocStore dials the metadata database with bounded retry, returning
// an error once the attempts are exhausted so the caller can exit non-zero.
func ConnectDocStore(
	ctx context.Context, appCtx *cli.Context, logger *logrus.Entry,
) (*postgres.Store, error) {

	dsn := DatabaseDSN(appCtx)
	retries := appCtx.Int("db-connect-retries")
	backoff := appCtx.Duration("db-connect-backoff")

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		store, err := postgres.NewStore(dsn)
		if err == nil {
			logger.Info("connected to metadata store")

			return store, nil
		}

		lastErr = err
		logger.WithField("attempt", attempt).WithField("err", err).Warn(
			"metadata store connection failed: retrying",
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf(
		"unable to connect to metadata store after %d attempts: %w", retries, lastErr,
	)
}

// CancelOnSignal cancels the provided context when SIGINT or SIGHUP is
// received, triggering a graceful shutdown of the worker running under it.
func CancelOnSignal(ctx context.Context, cancelFn context.CancelFunc, logger *logrus.Entry) {
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to signal")
			cancelFn()
		case <-ctx.Done():
		}
	}()
}
