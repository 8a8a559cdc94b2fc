package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/metrics"
	"bank_etl/internal/app/models"
	"bank_etl/internal/app/services/extract"
	"bank_etl/internal/app/services/load"
	"bank_etl/internal/app/services/storage"
	"bank_etl/internal/app/services/transform"

	"github.com/sirupsen/logrus"
)

// Job names the inputs of one run.
type Job struct {
	SourceRef string
	Columns   []string
	RatesPath string
	Queries   []string
}

// Processor runs extract, transform, load and the read queries once, in that
// order, stopping at the first failed stage. Sinks may hold a partial run
// after a failure.
type Processor struct {
	extractor   *extract.Extractor
	transformer *transform.Transformer
	loader      *load.Loader
	queries     *storage.QueryRunner
	progress    logger.Progress
	logger      *logrus.Logger
}

func New(extractor *extract.Extractor, transformer *transform.Transformer, loader *load.Loader, queries *storage.QueryRunner, progress logger.Progress) *Processor {
	return &Processor{
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		queries:     queries,
		progress:    progress,
		logger:      logger.GetLogger(),
	}
}

func (p *Processor) Run(ctx context.Context, job Job) error {
	if err := p.progress.Log("Preliminaries complete. Starting ETL process"); err != nil {
		return err
	}

	var table *models.BankTable
	err := p.stage("extract", func() (err error) {
		table, err = p.extractor.Extract(ctx, job.SourceRef, job.Columns)
		return err
	})
	if err != nil {
		return err
	}

	var rs *models.RecordSet
	err = p.stage("transform", func() (err error) {
		rs, err = p.transformer.Transform(ctx, table, job.RatesPath)
		return err
	})
	if err != nil {
		return err
	}

	if err := p.stage("load", func() error { return p.loader.Load(ctx, rs) }); err != nil {
		return err
	}

	for _, q := range job.Queries {
		if err := p.stage("query", func() error {
			_, err := p.queries.Run(ctx, q)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	metrics.ErrorsTotal.WithLabelValues(name).Inc()
	p.logger.WithError(err).WithField("stage", name).Error("Stage failed")
	if logErr := p.progress.Log(fmt.Sprintf("Stage %s failed: %v", name, err)); logErr != nil {
		return errors.Join(err, logErr)
	}
	return err
}
