package models

import (
	"fmt"

	"bank_etl/internal/app/constants"

	"github.com/shopspring/decimal"
)

// BankRecord is one parsed row of the source table.
type BankRecord struct {
	Name         string          `json:"name"`
	MarketCapUSD decimal.Decimal `json:"market_cap_usd"`
}

func (b *BankRecord) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// EnrichedBankRecord carries the converted market caps, each rounded to 2 places.
type EnrichedBankRecord struct {
	BankRecord
	MarketCapGBP decimal.Decimal `json:"market_cap_gbp"`
	MarketCapEUR decimal.Decimal `json:"market_cap_eur"`
	MarketCapINR decimal.Decimal `json:"market_cap_inr"`
}

// Field returns the value stored under a table column name.
func (r *EnrichedBankRecord) Field(column string) (any, error) {
	switch column {
	case constants.COL_NAME:
		return r.Name, nil
	case constants.COL_MC_USD:
		return r.MarketCapUSD, nil
	case constants.COL_MC_GBP:
		return r.MarketCapGBP, nil
	case constants.COL_MC_EUR:
		return r.MarketCapEUR, nil
	case constants.COL_MC_INR:
		return r.MarketCapINR, nil
	}
	return nil, fmt.Errorf("unknown column %q", column)
}

// BankTable is the extract stage output. Columns is the caller's attribute
// list; only the name and USD columns are populated at this point.
type BankTable struct {
	Columns []string
	Records []BankRecord
}

// RecordSet is the unit of work handed from the transform stage to every sink.
type RecordSet struct {
	Columns []string
	Records []EnrichedBankRecord
}

// Row returns the record's values in column order.
func (rs *RecordSet) Row(i int) ([]any, error) {
	rec := &rs.Records[i]
	row := make([]any, len(rs.Columns))
	for j, col := range rs.Columns {
		v, err := rec.Field(col)
		if err != nil {
			return nil, err
		}
		row[j] = v
	}
	return row, nil
}

func (rs *RecordSet) Len() int {
	return len(rs.Records)
}
