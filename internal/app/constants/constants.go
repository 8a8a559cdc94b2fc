package constants

const (
	BANKS_TABLE_NAME = "Largest_banks"

	COL_NAME   = "Name"
	COL_MC_USD = "MC_USD_Billion"
	COL_MC_GBP = "MC_GBP_Billion"
	COL_MC_EUR = "MC_EUR_Billion"
	COL_MC_INR = "MC_INR_Billion"

	CURRENCY_GBP = "GBP"
	CURRENCY_EUR = "EUR"
	CURRENCY_INR = "INR"
)

// ExtractColumns are the columns populated by the extract stage.
func ExtractColumns() []string {
	return []string{COL_NAME, COL_MC_USD}
}

// AttributeList is the full, ordered column set of the persisted table.
func AttributeList() []string {
	return []string{COL_NAME, COL_MC_USD, COL_MC_GBP, COL_MC_EUR, COL_MC_INR}
}

// DefaultQueries are the read queries run after a successful load.
func DefaultQueries(table string) []string {
	return []string{
		"SELECT * FROM " + table,
		"SELECT AVG(" + COL_MC_GBP + ") FROM " + table,
		"SELECT " + COL_NAME + " from " + table + " LIMIT 5",
	}
}

// Rounding modes for derived currency columns.
const (
	ROUNDING_HALF_AWAY = "half_away_from_zero"
	ROUNDING_BANKERS   = "bankers"
)
