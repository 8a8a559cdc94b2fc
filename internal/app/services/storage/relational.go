package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/common/logger"
	"bank_etl/internal/app/models"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// Store is a relational sink. The same SQL serves the embedded DuckDB file
// and the optional Postgres mirror.
type Store struct {
	db     *sql.DB
	driver string
	logger *logrus.Logger
}

// NewDuckDB opens (or creates) the embedded database file at path.
// An empty path opens an in-memory database.
func NewDuckDB(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverDuckDB, path)
	if err != nil {
		return nil, common.NewCustomError(common.ErrDBConnect, "Failed to open DuckDB "+path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, common.NewCustomError(common.ErrDBConnect, "Failed to open DuckDB "+path, err)
	}
	return &Store{db: db, driver: DriverDuckDB, logger: logger.GetLogger()}, nil
}

func NewPostgres(ctx context.Context, dbURL string) (*Store, error) {
	db, err := sql.Open(DriverPostgres, dbURL)
	if err != nil {
		return nil, common.NewCustomError(common.ErrDBConnect, "Failed to connect to Postgres", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, common.NewCustomError(common.ErrDBConnect, "Failed to connect to Postgres", err)
	}
	return &Store{db: db, driver: DriverPostgres, logger: logger.GetLogger()}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceTable drops table if it exists, recreates it from rs's columns and
// inserts every record. Column types follow the record field types.
func (s *Store) ReplaceTable(ctx context.Context, table string, rs *models.RecordSet) error {
	ddl, err := s.createTableSQL(table, rs.Columns)
	if err != nil {
		return common.NewCustomError(common.ErrWrite, fmt.Sprintf("Failed to build schema for %s", table), err)
	}

	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(table)); err != nil {
		return common.NewCustomError(common.ErrWrite, fmt.Sprintf("Failed to drop table %s", table), err)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return common.NewCustomError(common.ErrWrite, fmt.Sprintf("Failed to create table %s", table), err)
	}
	s.logger.Info(fmt.Sprintf("Recreated table %s on %s", table, s.driver))

	if err := s.insertBatch(ctx, table, rs); err != nil {
		return common.NewCustomError(common.ErrWrite, fmt.Sprintf("Failed to insert into %s", table), err)
	}
	return nil
}

func (s *Store) insertBatch(ctx context.Context, table string, rs *models.RecordSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cols := make([]string, len(rs.Columns))
	params := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		cols[i] = quoteIdent(c)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO `+quoteIdent(table)+` (`+strings.Join(cols, ", ")+`) VALUES (`+strings.Join(params, ", ")+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < rs.Len(); i++ {
		row, err := rs.Row(i)
		if err != nil {
			return err
		}
		for j := range row {
			row[j] = bindValue(row[j])
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to insert %v: %v", row[0], err))
			return err
		}
	}

	return tx.Commit()
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+quoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, common.NewCustomError(common.ErrQuery, "Failed to count rows in "+table, err)
	}
	return n, nil
}

func (s *Store) createTableSQL(table string, columns []string) (string, error) {
	var zero models.EnrichedBankRecord
	defs := make([]string, len(columns))
	for i, c := range columns {
		v, err := zero.Field(c)
		if err != nil {
			return "", err
		}
		typ, err := s.columnType(v)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c, err)
		}
		defs[i] = quoteIdent(c) + " " + typ
	}
	return `CREATE TABLE ` + quoteIdent(table) + ` (` + strings.Join(defs, ", ") + `)`, nil
}

func (s *Store) columnType(v any) (string, error) {
	switch v.(type) {
	case string:
		return "TEXT", nil
	case decimal.Decimal, float64, float32:
		if s.driver == DriverPostgres {
			return "DOUBLE PRECISION", nil
		}
		return "DOUBLE", nil
	case int, int64:
		return "BIGINT", nil
	}
	return "", fmt.Errorf("no column type for %T", v)
}

// bindValue converts decimals to the float representation stored in numeric columns.
func bindValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
