package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"aging-dashboard/internal/model"
)

func writeWorkbook(t *testing.T, header []string, rows ...[]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &cells))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "aging.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadFileWorkbook(t *testing.T) {
	header := model.NarrowLayout.Required()
	path := writeWorkbook(t, header,
		[]interface{}{"ACME SA", "Alfa", "0010", "Domestic", "Retail", 1000.5},
		[]interface{}{"ACME SA", "Beta", "0020", "Export", "Wholesale", 250},
	)

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, header, table.Columns)
	require.Equal(t, 2, table.Len())

	// codes keep their leading zeros
	assert.Equal(t, "0010", table.Rows[0][model.ColumnProfitCenter])
	assert.Equal(t, 1000.5, table.Rows[0][model.BucketAmount])
	assert.Equal(t, 250, table.Rows[1][model.BucketAmount])
}

func TestLoadReaderCSVWithBOM(t *testing.T) {
	input := "\ufeff" + strings.Join(model.NarrowLayout.Required(), ",") + "\n" +
		"ACME SA,Alfa,0010,Domestic,Retail,\"1.234,50\"\n" +
		",,,,,\n" +
		"Globex,Gamma,0020,Export,Wholesale\n"

	table, err := LoadReader("aging.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, model.ColumnCompany, table.Columns[0])
	require.Equal(t, 2, table.Len(), "blank rows are skipped")
	assert.Equal(t, "1.234,50", table.Rows[0][model.BucketAmount])
	assert.Nil(t, table.Rows[1][model.BucketAmount], "short rows are padded")

	ds, err := Prepare(table, nil)
	require.NoError(t, err)
	require.Len(t, ds.Coercions, 1)
	assert.True(t, ds.Coercions[0].LocaleApplied)
	assert.Equal(t, []float64{1234.5, 0}, ds.Coercions[0].Values)
	assert.Equal(t, 1, ds.ZeroedCells())
}

func TestLoadReaderUnreadable(t *testing.T) {
	_, err := LoadReader("aging.xlsx", strings.NewReader("definitely not a zip archive"))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = LoadReader("aging.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestLoadReaderCleansHeaders(t *testing.T) {
	input := "\" BUKRS_TXT \",KUNNR_TXT\nACME SA,Alfa\n"

	table, err := LoadReader("aging.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{model.ColumnCompany, model.ColumnCustomer}, table.Columns)
}

func TestLocaleColumnReadsThousandsOnlyCells(t *testing.T) {
	input := strings.Join(model.NarrowLayout.Required(), ",") + "\n" +
		"ACME SA,Alfa,0010,Domestic,Retail,\"1.234,56\"\n" +
		"ACME SA,Beta,0010,Domestic,Retail,2.500\n" +
		"Globex,Gamma,0020,Export,Wholesale,\"3.000,00\"\n"

	table, err := LoadReader("aging.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "2.500", table.Rows[1][model.BucketAmount], "bucket text is kept as written")

	ds, err := Prepare(table, nil)
	require.NoError(t, err)
	require.Len(t, ds.Coercions, 1)
	assert.True(t, ds.Coercions[0].LocaleApplied)
	assert.InDeltaSlice(t, []float64{1234.56, 2500, 3000}, ds.Coercions[0].Values, 1e-9)
	assert.Zero(t, ds.ZeroedCells())
}

func TestPlainColumnKeepsDecimalPoint(t *testing.T) {
	input := strings.Join(model.NarrowLayout.Required(), ",") + "\n" +
		"ACME SA,Alfa,0010,Domestic,Retail,2.500\n" +
		"ACME SA,Beta,0010,Domestic,Retail,10\n"

	table, err := LoadReader("aging.csv", strings.NewReader(input))
	require.NoError(t, err)
	ds, err := Prepare(table, nil)
	require.NoError(t, err)
	assert.False(t, ds.Coercions[0].LocaleApplied)
	assert.InDeltaSlice(t, []float64{2.5, 10}, ds.Coercions[0].Values, 1e-9)
}

func TestWorkbookTextAmountsGoThroughLocalePass(t *testing.T) {
	header := model.NarrowLayout.Required()
	path := writeWorkbook(t, header,
		[]interface{}{"ACME SA", "Alfa", "0010", "Domestic", "Retail", "1.234,56"},
		[]interface{}{"ACME SA", "Alfa", "0010", "Domestic", "Retail", "3.000,00"},
		[]interface{}{"ACME SA", "Alfa", "0010", "Domestic", "Retail", "7,5"},
		[]interface{}{"ACME SA", "Beta", "0010", "Domestic", "Retail", "2.500"},
		[]interface{}{"Globex", "Gamma", "0020", "Export", "Wholesale", 99.5},
	)

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2.500", table.Rows[3][model.BucketAmount])
	assert.Equal(t, 99.5, table.Rows[4][model.BucketAmount])

	ds, err := Prepare(table, nil)
	require.NoError(t, err)
	assert.True(t, ds.Coercions[0].LocaleApplied)
	assert.InDeltaSlice(t, []float64{1234.56, 3000, 7.5, 2500, 99.5}, ds.Coercions[0].Values, 1e-9)
}
