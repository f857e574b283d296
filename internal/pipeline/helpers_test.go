package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"aging-dashboard/internal/model"
)

// row builds a full-layout record; unspecified buckets are 0.
func row(company, customer, prctr, market, channel string, buckets map[string]interface{}) model.GenericRecord {
	rec := model.GenericRecord{
		model.ColumnCompany:      company,
		model.ColumnCustomer:     customer,
		model.ColumnProfitCenter: prctr,
		model.ColumnMarket:       market,
		model.ColumnChannel:      channel,
	}
	for _, b := range model.FullLayout.BucketColumns() {
		rec[b] = 0
	}
	for k, v := range buckets {
		rec[k] = v
	}
	return rec
}

func rawTable(rows ...model.GenericRecord) *model.Table {
	return &model.Table{
		Columns: append([]string{"DOC"}, model.FullLayout.Required()...),
		Rows:    rows,
	}
}

// sampleTable is a small extract spanning two companies and three customers.
func sampleTable() *model.Table {
	return rawTable(
		row("ACME SA", "Alfa", "1000", "Domestic", "Retail", map[string]interface{}{
			model.BucketNotDue: 1000.0, model.BucketDue30: 200.0,
		}),
		row("ACME SA", "Beta", "1000", "Export", "Wholesale", map[string]interface{}{
			model.BucketNotDue: 500.0, model.BucketDue90: 300.0,
		}),
		row("ACME SA", "Alfa", "2000", "Export", "Retail", map[string]interface{}{
			model.BucketDue360: 50.0, model.BucketDueOver360: 25.0,
		}),
		row("Globex", "Gamma", "2000", "Domestic", "Wholesale", map[string]interface{}{
			model.BucketNotDue: 2500000.0, model.BucketDue60: 100.0,
		}),
	)
}

func prepared(t *testing.T, table *model.Table) *Dataset {
	t.Helper()
	ds, err := Prepare(table, nil)
	require.NoError(t, err)
	return ds
}
