package storage

import (
	"context"
	"fmt"
	"io"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/dto"
)

// QueryRunner executes read queries against a Store and prints each row.
type QueryRunner struct {
	store    *Store
	out      io.Writer
	progress logger.Progress
}

func NewQueryRunner(store *Store, out io.Writer, progress logger.Progress) *QueryRunner {
	return &QueryRunner{store: store, out: out, progress: progress}
}

// Run executes query with optional bound args. Rows are printed in Go's
// default slice rendering, one per line.
func (q *QueryRunner) Run(ctx context.Context, query string, args ...any) (*dto.QueryResult, error) {
	if err := q.progress.Log("Running query: " + query); err != nil {
		return nil, err
	}

	rows, err := q.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.NewCustomError(common.ErrQuery, "Failed to run query: "+query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, common.NewCustomError(common.ErrQuery, "Failed to read columns: "+query, err)
	}

	result := &dto.QueryResult{Query: query, Columns: cols}
	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, common.NewCustomError(common.ErrQuery, "Failed to scan row: "+query, err)
		}
		result.Rows = append(result.Rows, row)
		fmt.Fprintln(q.out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewCustomError(common.ErrQuery, "Failed to iterate rows: "+query, err)
	}

	if err := q.progress.Log("Query execution complete"); err != nil {
		return result, err
	}
	return result, nil
}
