package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	common "bank_etl/internal/app/common/exception_handler"
	"bank_etl/internal/app/constants"
	"bank_etl/internal/app/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// WriteCSV writes rs to path as comma-separated text with a header row,
// replacing any existing file.
func WriteCSV(path string, rs *models.RecordSet) error {
	f, err := os.Create(path)
	if err != nil {
		return common.NewCustomError(common.ErrWrite, "Failed to create "+path, err)
	}

	if err := writeCSV(f, rs); err != nil {
		f.Close()
		return common.NewCustomError(common.ErrWrite, "Failed to write "+path, err)
	}
	if err := f.Close(); err != nil {
		return common.NewCustomError(common.ErrWrite, "Failed to close "+path, err)
	}
	return nil
}

func writeCSV(f *os.File, rs *models.RecordSet) error {
	w := csv.NewWriter(f)
	if err := w.Write(rs.Columns); err != nil {
		return err
	}

	record := make([]string, len(rs.Columns))
	for i := 0; i < rs.Len(); i++ {
		row, err := rs.Row(i)
		if err != nil {
			return err
		}
		for j, v := range row {
			record[j] = formatCell(rs.Columns[j], v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// formatCell keeps the source precision for USD and two places for converted columns.
func formatCell(column string, v any) string {
	switch val := v.(type) {
	case string:
		return val
	case decimal.Decimal:
		if column == constants.COL_MC_USD {
			return val.String()
		}
		return val.StringFixed(2)
	default:
		return fmt.Sprint(val)
	}
}

// WriteXLSX writes rs to a single-sheet workbook at path, replacing any existing file.
func WriteXLSX(path, sheet string, rs *models.RecordSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return common.NewCustomError(common.ErrWrite, "Failed to name sheet", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &rs.Columns); err != nil {
		return common.NewCustomError(common.ErrWrite, "Failed to write header", err)
	}

	for i := 0; i < rs.Len(); i++ {
		row, err := rs.Row(i)
		if err != nil {
			return common.NewCustomError(common.ErrWrite, "Failed to read record", err)
		}
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = bindValue(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return common.NewCustomError(common.ErrWrite, fmt.Sprintf("Failed to write row %d", i+1), err)
		}
	}

	for i := range rs.Columns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, colName, colName, 18)
	}

	if err := f.SaveAs(path); err != nil {
		return common.NewCustomError(common.ErrWrite, "Failed to save "+path, err)
	}
	return nil
}
