package load

import (
	"context"
	"errors"
	"time"

	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/metrics"
	"bank_etl/internal/app/models"
	"bank_etl/internal/app/services/storage"

	"github.com/sirupsen/logrus"
)

// Sink is one destination for a RecordSet. Writes replace earlier contents.
type Sink interface {
	Name() string
	Write(ctx context.Context, rs *models.RecordSet) error
}

type CSVSink struct {
	Path string
}

func (s CSVSink) Name() string { return "csv" }

func (s CSVSink) Write(_ context.Context, rs *models.RecordSet) error {
	return storage.WriteCSV(s.Path, rs)
}

type XLSXSink struct {
	Path  string
	Sheet string
}

func (s XLSXSink) Name() string { return "xlsx" }

func (s XLSXSink) Write(_ context.Context, rs *models.RecordSet) error {
	return storage.WriteXLSX(s.Path, s.Sheet, rs)
}

// TableSink replaces a table in a relational store.
type TableSink struct {
	Store *storage.Store
	Table string
}

func (s TableSink) Name() string { return s.Store.Driver() }

func (s TableSink) Write(ctx context.Context, rs *models.RecordSet) error {
	return s.Store.ReplaceTable(ctx, s.Table, rs)
}

// Loader writes a RecordSet to every sink in order. A failing sink does not
// stop the remaining ones; all failures are returned joined.
type Loader struct {
	sinks    []Sink
	progress logger.Progress
	logger   *logrus.Logger
}

func New(progress logger.Progress, sinks ...Sink) *Loader {
	return &Loader{sinks: sinks, progress: progress, logger: logger.GetLogger()}
}

func (l *Loader) Load(ctx context.Context, rs *models.RecordSet) error {
	var errs []error
	for _, sink := range l.sinks {
		errs = append(errs, l.loadOne(ctx, sink, rs)...)
	}
	return errors.Join(errs...)
}

func (l *Loader) loadOne(ctx context.Context, sink Sink, rs *models.RecordSet) []error {
	var errs []error
	name := sink.Name()

	if err := l.progress.Log("Saving data to " + name); err != nil {
		errs = append(errs, err)
	}

	start := time.Now()
	err := sink.Write(ctx, rs)
	metrics.StageDuration.WithLabelValues("load_" + name).Observe(time.Since(start).Seconds())

	if err != nil {
		l.logger.WithError(err).WithField("sink", name).Error("Sink write failed")
		metrics.ErrorsTotal.WithLabelValues("load_" + name).Inc()
		errs = append(errs, err)
		if logErr := l.progress.Log("Failed to save data to " + name); logErr != nil {
			errs = append(errs, logErr)
		}
		return errs
	}

	metrics.RecordsLoaded.WithLabelValues(name).Add(float64(rs.Len()))
	if err := l.progress.Log("Data saved to " + name); err != nil {
		errs = append(errs, err)
	}
	return errs
}
