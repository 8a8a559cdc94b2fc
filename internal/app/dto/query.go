package dto

// QueryResult holds every row returned by a read query, in driver-native types.
type QueryResult struct {
	Query   string   `json:"query"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
