package transform

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/constants"
	"bank_etl/internal/app/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const places = 2

// Transformer converts USD market caps into the supported currencies.
type Transformer struct {
	roundingMode string
	progress     logger.Progress
	logger       *logrus.Logger
}

func New(roundingMode string, progress logger.Progress) (*Transformer, error) {
	switch roundingMode {
	case constants.ROUNDING_HALF_AWAY, constants.ROUNDING_BANKERS:
	default:
		return nil, common.NewCustomError(common.ErrConfigLoad, fmt.Sprintf("Unknown rounding mode %q", roundingMode), nil)
	}
	return &Transformer{roundingMode: roundingMode, progress: progress, logger: logger.GetLogger()}, nil
}

// Transform loads the rate table at ratesPath and enriches every record.
func (t *Transformer) Transform(ctx context.Context, table *models.BankTable, ratesPath string) (*models.RecordSet, error) {
	if err := t.progress.Log("Starting data transformation"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rates, err := LoadRates(ratesPath)
	if err != nil {
		return nil, err
	}
	t.logger.WithField("currencies", len(rates)).Debug("Loaded exchange rates")

	rs, err := t.Convert(table, rates)
	if err != nil {
		return nil, err
	}

	if err := t.progress.Log("Data transformation complete"); err != nil {
		return nil, err
	}
	return rs, nil
}

// Convert derives the GBP, EUR and INR columns. A missing rate fails the
// whole conversion and no records are returned.
func (t *Transformer) Convert(table *models.BankTable, rates models.ExchangeRateTable) (*models.RecordSet, error) {
	gbp, err := requireRate(rates, constants.CURRENCY_GBP)
	if err != nil {
		return nil, err
	}
	eur, err := requireRate(rates, constants.CURRENCY_EUR)
	if err != nil {
		return nil, err
	}
	inr, err := requireRate(rates, constants.CURRENCY_INR)
	if err != nil {
		return nil, err
	}

	rs := &models.RecordSet{
		Columns: constants.AttributeList(),
		Records: make([]models.EnrichedBankRecord, 0, len(table.Records)),
	}
	for _, rec := range table.Records {
		rs.Records = append(rs.Records, models.EnrichedBankRecord{
			BankRecord:   rec,
			MarketCapGBP: t.round(rec.MarketCapUSD.Mul(gbp)),
			MarketCapEUR: t.round(rec.MarketCapUSD.Mul(eur)),
			MarketCapINR: t.round(rec.MarketCapUSD.Mul(inr)),
		})
	}
	return rs, nil
}

func (t *Transformer) round(d decimal.Decimal) decimal.Decimal {
	if t.roundingMode == constants.ROUNDING_BANKERS {
		return d.RoundBank(places)
	}
	return d.Round(places)
}

func requireRate(rates models.ExchangeRateTable, code string) (decimal.Decimal, error) {
	rate, ok := rates.Rate(code)
	if !ok {
		return decimal.Zero, common.NewCustomError(common.ErrMissingRate, "No exchange rate for "+code, nil)
	}
	return rate, nil
}

// LoadRates reads a CSV with "Currency" and "Rate" header columns. When a
// currency appears twice the later row wins.
func LoadRates(path string) (models.ExchangeRateTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewCustomError(common.ErrRateLoad, "Failed to open rate file "+path, err)
	}
	defer f.Close()

	rates, err := readRates(f)
	if err != nil {
		return nil, common.NewCustomError(common.ErrRateLoad, "Failed to read rate file "+path, err)
	}
	return rates, nil
}

func readRates(r io.Reader) (models.ExchangeRateTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	currencyIdx, rateIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "Currency":
			currencyIdx = i
		case "Rate":
			rateIdx = i
		}
	}
	if currencyIdx < 0 || rateIdx < 0 {
		return nil, fmt.Errorf("header %v lacks Currency and Rate columns", header)
	}

	rates := make(models.ExchangeRateTable)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if currencyIdx >= len(row) || rateIdx >= len(row) {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(currencyIdx, rateIdx)+1, len(row))
		}

		code := strings.TrimSpace(row[currencyIdx])
		rate, err := decimal.NewFromString(strings.TrimSpace(row[rateIdx]))
		if err != nil {
			return nil, fmt.Errorf("line %d: rate for %s: %w", line, code, err)
		}
		rates[code] = rate
	}
	return rates, nil
}
