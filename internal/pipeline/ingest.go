package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"aging-dashboard/internal/model"
	"aging-dashboard/pkg/utils"
)

// ErrUnreadable is returned when an input file cannot be parsed as a sheet.
var ErrUnreadable = errors.New("the file could not be read as a spreadsheet")

// LoadFile reads an XLSX or CSV file from disk.
func LoadFile(path string) (*model.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer file.Close()

	return LoadReader(path, file)
}

// LoadReader reads an uploaded file. The name's extension selects the
// format; anything that is not CSV is read as a workbook.
func LoadReader(name string, r io.Reader) (*model.Table, error) {
	var (
		table *model.Table
		err   error
	)
	switch utils.GetFileType(name) {
	case "csv":
		table, err = ingestCSV(r)
	default:
		table, err = ingestXLSX(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	slog.Info("Sheet loaded",
		slog.String("component", "ingest"),
		slog.String("source", name),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", table.Len()))
	return table, nil
}

// ------------------- XLSX Ingestion -------------------
func ingestXLSX(r io.Reader) (*model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	sheet := sheets[0]
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	// only cells stored as numbers count as numeric; text such as
	// "2.500" is left for coercion to read
	numeric := func(row, col int) bool {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return false
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return false
		}
		return typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber
	}
	return buildTable(records, numeric)
}

// ------------------- CSV Ingestion -------------------
func ingestCSV(r io.Reader) (*model.Table, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV read error: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return buildTable(records, nil)
}

// buildTable turns raw string rows into a table. The first row is the header.
// numeric reports whether the source stored a cell as a number; nil means
// every cell is text.
func buildTable(records [][]string, numeric func(row, col int) bool) (*model.Table, error) {
	if len(records) == 0 {
		return nil, errors.New("sheet is empty")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		// Clean header names: trim whitespace and remove ALL quotes
		cleanHeader := strings.TrimSpace(h)
		cleanHeader = strings.ReplaceAll(cleanHeader, `"`, "")
		headers[i] = cleanHeader
	}

	table := &model.Table{Columns: headers}
	for r, record := range records {
		if r == 0 || blankRow(record) {
			continue
		}

		recMap := make(model.GenericRecord, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			var raw string
			if i < len(record) {
				raw = record[i]
			}
			stored := model.IsBucket(h) && numeric != nil && numeric(r, i)
			recMap[h] = cellValue(h, raw, stored)
		}
		table.Rows = append(table.Rows, recMap)
	}
	return table, nil
}

// cellValue keeps categorical cells as text so codes such as "0010" survive.
// Bucket cells stay text unless stored as numbers, so the locale pass of
// coercion sees "2.500" as written. Every other cell is parsed into a number
// when possible.
func cellValue(column, raw string, numeric bool) interface{} {
	switch {
	case model.IsCategorical(column):
		return trimmed(raw)
	case model.IsBucket(column) && !numeric:
		return trimmed(raw)
	}
	return utils.ParseValue(raw)
}

func trimmed(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return s
}

func blankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
