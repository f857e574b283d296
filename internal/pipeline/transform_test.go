package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aging-dashboard/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		locale bool
		want   float64
		ok     bool
	}{
		{"float", 12.5, false, 12.5, true},
		{"int", 7, false, 7, true},
		{"plain string", "1234.56", false, 1234.56, true},
		{"locale string without locale", "1.234,56", false, 0, false},
		{"locale string", "1.234,56", true, 1234.56, true},
		{"locale keeps numbers", 1234.56, true, 1234.56, true},
		{"nil", nil, false, 0, false},
		{"blank", "  ", true, 0, false},
		{"text", "n/a", true, 0, false},
		{"inf text", "inf", false, 0, false},
		{"infinity text locale", "-Infinity", true, 0, false},
		{"inf number", math.Inf(1), false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.in, tt.locale)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCoerceColumnNumeric(t *testing.T) {
	res := CoerceColumn([]interface{}{1.5, nil, 3, 0.0})
	assert.Equal(t, []float64{1.5, 0, 3, 0}, res.Values)
	assert.Equal(t, 1, res.Zeroed)
	assert.False(t, res.LocaleApplied)
}

func TestCoerceColumnLocale(t *testing.T) {
	res := CoerceColumn([]interface{}{"1.234,56"})
	require.Len(t, res.Values, 1)
	assert.InDelta(t, 1234.56, res.Values[0], 1e-9)
	assert.True(t, res.LocaleApplied)
	assert.Zero(t, res.Zeroed)

	res = CoerceColumn([]interface{}{"1.234,56", "10,5", "abc", 7.0})
	assert.True(t, res.LocaleApplied)
	assert.InDeltaSlice(t, []float64{1234.56, 10.5, 0, 7}, res.Values, 1e-9)
	assert.Equal(t, 1, res.Zeroed)
}

func TestCoerceColumnMinorityFailuresKeepDirectParse(t *testing.T) {
	// one failure out of three does not trigger the locale pass
	res := CoerceColumn([]interface{}{"1234.56", "12", "oops"})
	assert.False(t, res.LocaleApplied)
	assert.InDeltaSlice(t, []float64{1234.56, 12, 0}, res.Values, 1e-9)
	assert.Equal(t, 1, res.Zeroed)
}

func TestCoerceColumnIdempotent(t *testing.T) {
	first := CoerceColumn([]interface{}{"1.234,56", "2.000", "x", nil})

	again := make([]interface{}, len(first.Values))
	for i, v := range first.Values {
		again[i] = v
	}
	second := CoerceColumn(again)

	assert.Equal(t, first.Values, second.Values)
	assert.Zero(t, second.Zeroed)
}

func TestCoerceBucketsAddsDerivedColumns(t *testing.T) {
	table := rawTable(row("ACME SA", "Alfa", "1000", "Domestic", "Retail", map[string]interface{}{
		model.BucketNotDue: "1.500,25",
	}))
	original := table.Rows[0][model.BucketNotDue]

	coerced, results := CoerceBuckets(table, model.FullLayout)

	require.Len(t, results, len(model.FullLayout.Buckets))
	assert.Equal(t, 1500.25, coerced.Rows[0][model.NumericColumn(model.BucketNotDue)])
	assert.True(t, coerced.HasColumn(model.NumericColumn(model.BucketDueOver360)))
	// source rows are untouched
	_, derived := table.Rows[0][model.NumericColumn(model.BucketNotDue)]
	assert.False(t, derived)
	assert.Equal(t, original, coerced.Rows[0][model.BucketNotDue])
}

func TestCoerceColumnZeroesInfinity(t *testing.T) {
	res := CoerceColumn([]interface{}{"100", "inf", "50"})
	assert.Equal(t, []float64{100, 0, 50}, res.Values)
	assert.Equal(t, 1, res.Zeroed)
	assert.False(t, res.LocaleApplied)

	res = CoerceColumn([]interface{}{1.5, math.Inf(-1)})
	assert.Equal(t, []float64{1.5, 0}, res.Values)
	assert.Equal(t, 1, res.Zeroed)
}
