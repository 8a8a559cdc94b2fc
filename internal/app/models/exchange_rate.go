package models

import "github.com/shopspring/decimal"

// ExchangeRateTable maps a currency code to its USD-to-currency multiplier.
type ExchangeRateTable map[string]decimal.Decimal

// Rate looks up code by exact match.
func (t ExchangeRateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t[code]
	return r, ok
}
