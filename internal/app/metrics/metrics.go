package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const JobName = "bank_etl"

var (
	RecordsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bank_etl_records_extracted_total",
		Help: "Total number of bank records parsed from the source table",
	})

	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_etl_rows_skipped_total",
		Help: "Total number of source rows skipped",
	}, []string{"reason"})

	RecordsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_etl_records_loaded_total",
		Help: "Total number of records written per sink",
	}, []string{"sink"})

	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_etl_page_cache_lookups_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_etl_errors_total",
		Help: "Total number of errors",
	}, []string{"stage"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_etl_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// Push sends the default registry to a Prometheus pushgateway.
func Push(url string) error {
	return push.New(url, JobName).Gatherer(prometheus.DefaultGatherer).Push()
}
