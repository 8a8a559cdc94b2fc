package storage

import (
	"bank_etl/internal/app/constants"
	"bank_etl/internal/app/models"

	"github.com/shopspring/decimal"
)

type recorder struct {
	msgs []string
}

func (r *recorder) Log(message string) error {
	r.msgs = append(r.msgs, message)
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleRecordSet() *models.RecordSet {
	return &models.RecordSet{
		Columns: constants.AttributeList(),
		Records: []models.EnrichedBankRecord{
			{
				BankRecord:   models.BankRecord{Name: "JPMorgan Chase", MarketCapUSD: dec("432.92")},
				MarketCapGBP: dec("346.34"),
				MarketCapEUR: dec("402.62"),
				MarketCapINR: dec("35910.71"),
			},
			{
				BankRecord:   models.BankRecord{Name: "Bank of America", MarketCapUSD: dec("231.52")},
				MarketCapGBP: dec("185.22"),
				MarketCapEUR: dec("215.31"),
				MarketCapINR: dec("19204.58"),
			},
			{
				BankRecord:   models.BankRecord{Name: "Bank, with comma", MarketCapUSD: dec("100")},
				MarketCapGBP: dec("80"),
				MarketCapEUR: dec("90"),
				MarketCapINR: dec("8000"),
			},
		},
	}
}
