package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aging-dashboard/internal/model"
)

func customers(t *model.Table) []string {
	out := make([]string, 0, t.Len())
	for _, rec := range t.Rows {
		out = append(out, rec[model.ColumnCustomer].(string))
	}
	return out
}

func TestApplyFiltersAllIsNoop(t *testing.T) {
	ds := prepared(t, sampleTable())

	filtered := ApplyFilters(ds.Table, model.NewConfig())
	assert.Equal(t, ds.Table.Len(), filtered.Len())
}

func TestApplyFiltersAnd(t *testing.T) {
	ds := prepared(t, sampleTable())
	cfg := model.NewConfig()
	cfg.Filters[model.ColumnCompany] = "ACME SA"
	cfg.Filters[model.ColumnMarket] = "Export"

	filtered := ApplyFilters(ds.Table, cfg)
	assert.Equal(t, []string{"Beta", "Alfa"}, customers(filtered))
}

func TestApplyFiltersStringifiedEquality(t *testing.T) {
	table := sampleTable()
	// a numeric profit center must still match its text selection
	table.Rows[0][model.ColumnProfitCenter] = 1000
	ds := prepared(t, table)

	cfg := model.NewConfig()
	cfg.Filters[model.ColumnProfitCenter] = "1000"

	assert.Equal(t, 2, ApplyFilters(ds.Table, cfg).Len())
}

func TestApplyFiltersMonotonic(t *testing.T) {
	ds := prepared(t, sampleTable())
	cfg := model.NewConfig()

	steps := []struct{ column, value string }{
		{model.ColumnCompany, "ACME SA"},
		{model.ColumnProfitCenter, "1000"},
		{model.ColumnChannel, "Retail"},
		{model.ColumnMarket, "Export"},
	}

	prev := ApplyFilters(ds.Table, cfg).Len()
	for _, s := range steps {
		cfg.Filters[s.column] = s.value
		n := ApplyFilters(ds.Table, cfg).Len()
		assert.LessOrEqual(t, n, prev, "adding %s=%s", s.column, s.value)
		prev = n
	}
	assert.Zero(t, prev)
}

func TestApplyFiltersActiveBucket(t *testing.T) {
	ds := prepared(t, sampleTable())
	cfg := model.NewConfig()
	cfg.ActiveBucket = model.BucketDue90

	filtered := ApplyFilters(ds.Table, cfg)
	assert.Equal(t, []string{"Beta"}, customers(filtered))
}

func TestApplyFiltersDoesNotMutateSource(t *testing.T) {
	ds := prepared(t, sampleTable())
	before := ds.Table.Len()
	cfg := model.NewConfig()
	cfg.Filters[model.ColumnCustomer] = "Gamma"

	_ = ApplyFilters(ds.Table, cfg)
	assert.Equal(t, before, ds.Table.Len())
}

func TestMetricsBaseCustomerOnly(t *testing.T) {
	ds := prepared(t, sampleTable())

	cfg := model.NewConfig()
	cfg.Filters[model.ColumnMarket] = "Export"
	filtered := ApplyFilters(ds.Table, cfg)
	// without a customer every row counts, whatever the other filters say
	assert.Equal(t, ds.Table.Len(), MetricsBase(ds.Table, filtered, cfg).Len())

	cfg.Filters[model.ColumnCustomer] = "Alfa"
	filtered = ApplyFilters(ds.Table, cfg)
	require.Equal(t, 1, filtered.Len())
	base := MetricsBase(ds.Table, filtered, cfg)
	assert.Equal(t, []string{"Alfa", "Alfa"}, customers(base))

	cfg.MetricsScope = model.ScopeFiltered
	assert.Equal(t, 1, MetricsBase(ds.Table, filtered, cfg).Len())
}

func TestDistinctValues(t *testing.T) {
	table := sampleTable()
	table.Rows[0][model.ColumnChannel] = nil
	ds := prepared(t, table)

	assert.Equal(t, []string{"ACME SA", "Globex"}, DistinctValues(ds.Table, model.ColumnCompany))
	assert.Equal(t, []string{"Retail", "Wholesale"}, DistinctValues(ds.Table, model.ColumnChannel))
	assert.Empty(t, DistinctValues(ds.Table, "NOPE"))
}

func TestDistinctValuesNumericCodes(t *testing.T) {
	table := sampleTable()
	codes := []string{"1000", "200", "30", "1000"}
	for i := range table.Rows {
		table.Rows[i][model.ColumnProfitCenter] = codes[i]
	}
	ds := prepared(t, table)
	assert.Equal(t, []string{"30", "200", "1000"}, DistinctValues(ds.Table, model.ColumnProfitCenter))

	table.Rows[0][model.ColumnProfitCenter] = "A10"
	ds = prepared(t, table)
	assert.Equal(t, []string{"1000", "200", "30", "A10"}, DistinctValues(ds.Table, model.ColumnProfitCenter))
}
