package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/metrics"
	"bank_etl/internal/app/models"
	"bank_etl/internal/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Options decides what happens to rows that do not fit the expected shape.
type Options struct {
	// SkipShortRows drops rows with fewer than two data cells; otherwise they fail the run.
	SkipShortRows bool
	// SkipMalformedRows drops rows whose market-cap cell is missing or not numeric.
	SkipMalformedRows bool
}

type Extractor struct {
	fetcher  *Fetcher
	opts     Options
	progress logger.Progress
	logger   *logrus.Logger
}

func New(fetcher *Fetcher, opts Options, progress logger.Progress) *Extractor {
	return &Extractor{
		fetcher:  fetcher,
		opts:     opts,
		progress: progress,
		logger:   logger.GetLogger(),
	}
}

// Extract fetches ref and parses its first table body into bank records.
func (e *Extractor) Extract(ctx context.Context, ref string, columns []string) (*models.BankTable, error) {
	if err := e.progress.Log("Starting data extraction"); err != nil {
		return nil, err
	}

	page, err := e.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	table, err := e.Parse(strings.NewReader(page), columns)
	if err != nil {
		return nil, err
	}
	metrics.RecordsExtracted.Add(float64(len(table.Records)))

	if err := e.progress.Log("Data extraction complete"); err != nil {
		return nil, err
	}
	return table, nil
}

// Parse reads the first tbody of an HTML document. The first row is treated
// as the header. Name comes from the second cell and the USD market cap from
// the third, both cut at the first '['.
func (e *Extractor) Parse(r io.Reader, columns []string) (*models.BankTable, error) {
	if len(columns) < 2 {
		return nil, common.NewCustomError(common.ErrParse, fmt.Sprintf("Need at least 2 columns, got %d", len(columns)), nil)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, common.NewCustomError(common.ErrParse, "Failed to parse document", err)
	}

	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, common.NewCustomError(common.ErrParse, "No table body found", nil)
	}

	table := &models.BankTable{Columns: append([]string(nil), columns...)}
	var rowErr error
	tbody.ChildrenFiltered("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}
		rec, skip, err := e.parseRow(i, row.ChildrenFiltered("td"))
		if err != nil {
			rowErr = err
			return false
		}
		if !skip {
			table.Records = append(table.Records, rec)
		}
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	return table, nil
}

func (e *Extractor) parseRow(n int, cells *goquery.Selection) (models.BankRecord, bool, error) {
	if cells.Length() < 2 {
		if e.opts.SkipShortRows {
			metrics.RowsSkipped.WithLabelValues("short").Inc()
			return models.BankRecord{}, true, nil
		}
		return models.BankRecord{}, false, common.NewCustomError(common.ErrParse, fmt.Sprintf("Row %d has %d cells", n, cells.Length()), nil)
	}

	rec := models.BankRecord{Name: utils.StripFootnote(cells.Eq(1).Text())}
	if err := rec.Validate(); err != nil {
		return e.malformed(n, err)
	}

	if cells.Length() < 3 {
		return e.malformed(n, fmt.Errorf("missing market cap cell"))
	}
	raw := utils.StripFootnote(cells.Eq(2).Text())
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return e.malformed(n, fmt.Errorf("market cap %q is not numeric: %w", raw, err))
	}
	rec.MarketCapUSD = value

	return rec, false, nil
}

func (e *Extractor) malformed(n int, cause error) (models.BankRecord, bool, error) {
	if e.opts.SkipMalformedRows {
		e.logger.WithField("row", n).WithError(cause).Warn("Skipping malformed row")
		metrics.RowsSkipped.WithLabelValues("malformed").Inc()
		return models.BankRecord{}, true, nil
	}
	return models.BankRecord{}, false, common.NewCustomError(common.ErrParse, fmt.Sprintf("Row %d", n), cause)
}
