package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"bank_etl/cmd/processor"
	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/config"
	"bank_etl/internal/app/constants"
	"bank_etl/internal/app/metrics"
	"bank_etl/internal/app/services/extract"
	"bank_etl/internal/app/services/load"
	"bank_etl/internal/app/services/storage"
	"bank_etl/internal/app/services/transform"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()

	if cfg.PushgatewayURL != "" {
		if pushErr := metrics.Push(cfg.PushgatewayURL); pushErr != nil {
			log.WithError(pushErr).Warn("Failed to push metrics")
		}
	}

	if err != nil {
		log.WithError(err).Error("ETL run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log := logger.GetLogger()

	progress, err := logger.OpenProgressLog(cfg.LogFile, log)
	if err != nil {
		return err
	}
	defer progress.Close()

	store, err := storage.NewDuckDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	storeOpen := true
	closeStore := func() error {
		if !storeOpen {
			return nil
		}
		storeOpen = false
		return store.Close()
	}
	defer closeStore()

	sinks := []load.Sink{load.CSVSink{Path: cfg.CSVPath}}
	if cfg.XLSXPath != "" {
		sinks = append(sinks, load.XLSXSink{Path: cfg.XLSXPath, Sheet: cfg.TableName})
	}
	sinks = append(sinks, load.TableSink{Store: store, Table: cfg.TableName})

	if cfg.DatabaseURL != "" {
		mirror, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer mirror.Close()
		sinks = append(sinks, load.TableSink{Store: mirror, Table: cfg.TableName})
	}

	fetcher := extract.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent)
	if cfg.RedisAddr != "" {
		cache, err := storage.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Page cache unavailable, fetching directly")
		} else {
			defer cache.Close()
			fetcher.WithCache(cache, cfg.PageCacheTTL)
		}
	}

	transformer, err := transform.New(cfg.RoundingMode, progress)
	if err != nil {
		return err
	}

	proc := processor.New(
		extract.New(fetcher, extract.Options{
			SkipShortRows:     cfg.SkipShortRows,
			SkipMalformedRows: cfg.SkipMalformedRows,
		}, progress),
		transformer,
		load.New(progress, sinks...),
		storage.NewQueryRunner(store, os.Stdout, progress),
		progress,
	)

	err = proc.Run(ctx, processor.Job{
		SourceRef: cfg.SourceURL,
		Columns:   constants.ExtractColumns(),
		RatesPath: cfg.RatesPath,
		Queries:   constants.DefaultQueries(cfg.TableName),
	})
	if closeErr := closeStore(); closeErr != nil {
		err = errors.Join(err, common.NewCustomError(common.ErrDBConnect, "Failed to close database", closeErr))
	}
	if err != nil {
		return err
	}

	return progress.Log("Process complete")
}
