package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"aging-dashboard/internal/model"
	"aging-dashboard/pkg/utils"
)

// Default export naming.
const (
	DefaultExportBase  = "aging_filtered"
	DefaultExportSheet = "Data"
)

// XLSXFallbackWarning is shown when the spreadsheet export fails.
const XLSXFallbackWarning = "The spreadsheet could not be generated. Use the CSV export instead."

// ExportFile is a serialized export ready to be offered for download.
type ExportFile struct {
	model.ExportResult
	Data []byte `json:"-"`
}

// ExportManager serializes filtered tables without their derived columns.
type ExportManager struct {
	BaseName  string
	SheetName string
	logger    *slog.Logger
}

// NewExportManager creates an export manager with the default names.
func NewExportManager(logger *slog.Logger) *ExportManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportManager{
		BaseName:  DefaultExportBase,
		SheetName: DefaultExportSheet,
		logger:    logger.With(slog.String("component", "exporter")),
	}
}

// FileName returns the deterministic download name for a file type.
func (em *ExportManager) FileName(fileType string) string {
	return em.BaseName + "." + fileType
}

// exportRows returns the visible header and the matching cell values.
func exportRows(table *model.Table) ([]string, [][]interface{}) {
	header := table.VisibleColumns()
	rows := make([][]interface{}, len(table.Rows))
	for i, rec := range table.Rows {
		row := make([]interface{}, len(header))
		for j, col := range header {
			row[j] = rec[col]
		}
		rows[i] = row
	}
	return header, rows
}

// CSV writes the table as comma separated UTF-8 text with a header row.
func (em *ExportManager) CSV(table *model.Table) (*ExportFile, error) {
	header, rows := exportRows(table)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for j, v := range row {
			record[j] = utils.Stringify(v)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	em.logger.Info("CSV export ready", slog.Int("records", len(rows)), slog.Int("bytes", buf.Len()))
	return &ExportFile{
		ExportResult: model.ExportResult{
			Type:        "csv",
			Path:        em.FileName("csv"),
			RecordCount: len(rows),
			Success:     true,
			Timestamp:   time.Now().UTC(),
		},
		Data: buf.Bytes(),
	}, nil
}

// XLSX writes the table to a single-sheet workbook. It never fails: any
// error, including a panic inside the writer, is reported through the
// result's Warning and Error fields with Success set to false.
func (em *ExportManager) XLSX(table *model.Table) (result *ExportFile) {
	result = &ExportFile{
		ExportResult: model.ExportResult{
			Type:      "xlsx",
			Path:      em.FileName("xlsx"),
			Timestamp: time.Now().UTC(),
		},
	}

	defer func() {
		if r := recover(); r != nil {
			em.fail(result, fmt.Errorf("xlsx writer panic: %v", r))
		}
	}()

	data, count, err := em.writeWorkbook(table)
	if err != nil {
		em.fail(result, err)
		return result
	}

	result.Data = data
	result.RecordCount = count
	result.Success = true
	em.logger.Info("XLSX export ready", slog.Int("records", count), slog.Int("bytes", len(data)))
	return result
}

func (em *ExportManager) fail(result *ExportFile, err error) {
	result.Success = false
	result.Data = nil
	result.Error = err.Error()
	result.Warning = XLSXFallbackWarning
	em.logger.Warn("XLSX export failed", slog.String("error", err.Error()))
}

func (em *ExportManager) writeWorkbook(table *model.Table) ([]byte, int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), em.SheetName); err != nil {
		return nil, 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(em.SheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header, rows := exportRows(table)
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return nil, 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = ""
				continue
			}
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, 0, err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, 0, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), len(rows), nil
}
