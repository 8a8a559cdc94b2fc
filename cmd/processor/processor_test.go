package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/constants"
	"bank_etl/internal/app/services/extract"
	"bank_etl/internal/app/services/load"
	"bank_etl/internal/app/services/storage"
	"bank_etl/internal/app/services/transform"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const banksPage = `<html><body><table><tbody>
<tr><th>Rank</th><th>Bank name</th><th>Market cap (US$ billion)</th></tr>
<tr><td>1</td><td>JPMorgan Chase[1]</td><td>432.92</td></tr>
<tr><td>2</td><td>Bank of America</td><td>231.52[2]</td></tr>
<tr><td>3</td><td>Industrial and Commercial Bank of China</td><td>100.0</td></tr>
</tbody></table></body></html>`

type fixture struct {
	dir      string
	csvPath  string
	logPath  string
	store    *storage.Store
	out      *bytes.Buffer
	progress *logger.ProgressLog
	proc     *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	console := logrus.New()
	console.SetOutput(io.Discard)

	f := &fixture{
		dir:     dir,
		csvPath: filepath.Join(dir, "Largest_banks_data.csv"),
		logPath: filepath.Join(dir, "code_log.txt"),
		out:     &bytes.Buffer{},
	}

	var err error
	f.progress, err = logger.OpenProgressLog(f.logPath, console)
	require.NoError(t, err)
	t.Cleanup(func() { f.progress.Close() })

	f.store, err = storage.NewDuckDB(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { f.store.Close() })

	tr, err := transform.New(constants.ROUNDING_HALF_AWAY, f.progress)
	require.NoError(t, err)

	f.proc = New(
		extract.New(extract.NewFetcher(5*time.Second, "test"), extract.Options{SkipShortRows: true}, f.progress),
		tr,
		load.New(f.progress,
			load.CSVSink{Path: f.csvPath},
			load.TableSink{Store: f.store, Table: constants.BANKS_TABLE_NAME},
		),
		storage.NewQueryRunner(f.store, f.out, f.progress),
		f.progress,
	)
	return f
}

func (f *fixture) writeRates(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, "exchange_rate.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) logMessages(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.logPath)
	require.NoError(t, err)
	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		_, msg, ok := strings.Cut(line, ",")
		require.True(t, ok, line)
		msgs = append(msgs, msg)
	}
	return msgs
}

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	job := Job{
		SourceRef: serve(t, http.StatusOK, banksPage),
		Columns:   constants.ExtractColumns(),
		RatesPath: f.writeRates(t, "Currency,Rate\nEUR,0.9\nGBP,0.8\nINR,80.0\n"),
		Queries:   constants.DefaultQueries(constants.BANKS_TABLE_NAME),
	}
	require.NoError(t, f.proc.Run(ctx, job))

	data, err := os.ReadFile(f.csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Name,MC_USD_Billion,MC_GBP_Billion,MC_EUR_Billion,MC_INR_Billion", lines[0])
	require.Equal(t, "JPMorgan Chase,432.92,346.34,389.63,34633.60", lines[1])
	require.Equal(t, "Industrial and Commercial Bank of China,100,80.00,90.00,8000.00", lines[3])

	n, err := f.store.CountRows(ctx, constants.BANKS_TABLE_NAME)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	printed := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, printed, 3+1+3)

	require.Equal(t, []string{
		"Preliminaries complete. Starting ETL process",
		"Starting data extraction",
		"Data extraction complete",
		"Starting data transformation",
		"Data transformation complete",
		"Saving data to csv",
		"Data saved to csv",
		"Saving data to duckdb",
		"Data saved to duckdb",
		"Running query: SELECT * FROM Largest_banks",
		"Query execution complete",
		"Running query: SELECT AVG(MC_GBP_Billion) FROM Largest_banks",
		"Query execution complete",
		"Running query: SELECT Name from Largest_banks LIMIT 5",
		"Query execution complete",
	}, f.logMessages(t))
}

func TestRunTwiceReplacesOutputs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	job := Job{
		SourceRef: serve(t, http.StatusOK, banksPage),
		Columns:   constants.ExtractColumns(),
		RatesPath: f.writeRates(t, "Currency,Rate\nEUR,0.9\nGBP,0.8\nINR,80.0\n"),
	}
	require.NoError(t, f.proc.Run(ctx, job))
	first, err := os.ReadFile(f.csvPath)
	require.NoError(t, err)

	require.NoError(t, f.proc.Run(ctx, job))
	second, err := os.ReadFile(f.csvPath)
	require.NoError(t, err)

	require.Equal(t, first, second)
	n, err := f.store.CountRows(ctx, constants.BANKS_TABLE_NAME)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestRunStopsOnMissingRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.proc.Run(ctx, Job{
		SourceRef: serve(t, http.StatusOK, banksPage),
		Columns:   constants.ExtractColumns(),
		RatesPath: f.writeRates(t, "Currency,Rate\nEUR,0.9\nGBP,0.8\n"),
		Queries:   constants.DefaultQueries(constants.BANKS_TABLE_NAME),
	})
	require.Error(t, err)
	require.True(t, common.HasCode(err, common.ErrMissingRate))

	_, statErr := os.Stat(f.csvPath)
	require.True(t, os.IsNotExist(statErr))
	_, countErr := f.store.CountRows(ctx, constants.BANKS_TABLE_NAME)
	require.True(t, common.HasCode(countErr, common.ErrQuery))

	msgs := f.logMessages(t)
	require.Equal(t, "Starting data transformation", msgs[len(msgs)-2])
	require.True(t, strings.HasPrefix(msgs[len(msgs)-1], "Stage transform failed"))
	require.Empty(t, f.out.String())
}

func TestRunStopsOnFetchError(t *testing.T) {
	f := newFixture(t)

	err := f.proc.Run(context.Background(), Job{
		SourceRef: serve(t, http.StatusServiceUnavailable, "down"),
		Columns:   constants.ExtractColumns(),
		RatesPath: f.writeRates(t, "Currency,Rate\nEUR,0.9\nGBP,0.8\nINR,80.0\n"),
	})
	require.Error(t, err)
	require.True(t, common.HasCode(err, common.ErrFetch))

	msgs := f.logMessages(t)
	require.Len(t, msgs, 3)
	require.True(t, strings.HasPrefix(msgs[2], "Stage extract failed"))
}

func TestRunJoinsLogFailureWithStageError(t *testing.T) {
	f := newFixture(t)

	p := *f.proc
	p.progress = failingProgress{}

	err := p.stage("extract", func() error {
		_, err := f.proc.extractor.Extract(context.Background(), serve(t, http.StatusNotFound, ""), constants.ExtractColumns())
		return err
	})
	require.Error(t, err)
	require.True(t, common.HasCode(err, common.ErrFetch))
	require.True(t, common.HasCode(err, common.ErrLogWrite))
}

func TestRunFailsWhenProgressLogFails(t *testing.T) {
	f := newFixture(t)

	p := *f.proc
	p.progress = failingProgress{}

	err := p.Run(context.Background(), Job{SourceRef: "unused", Columns: constants.ExtractColumns()})
	require.True(t, common.HasCode(err, common.ErrLogWrite))
}

type failingProgress struct{}

func (failingProgress) Log(string) error {
	return common.NewCustomError(common.ErrLogWrite, "log unavailable", nil)
}
