package pipeline

import (
	"math"
	"strconv"
	"strings"

	"aging-dashboard/internal/model"
	"aging-dashboard/pkg/utils"
)

// Coercion is the outcome of coercing one column.
type Coercion struct {
	Column        string    `json:"column"`
	Values        []float64 `json:"-"`
	Zeroed        int       `json:"zeroed"`
	LocaleApplied bool      `json:"locale_applied"`
}

// ParseAmount parses one cell. With locale set, string cells are read with
// "." as thousands separator and "," as decimal point. The boolean is false
// when the cell is missing, unparseable or not finite; the value is then 0.
func ParseAmount(v interface{}, locale bool) (float64, bool) {
	if f, ok := utils.Numeric(v); ok {
		if !finite(f) {
			return 0, false
		}
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if locale {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CoerceColumn converts raw cells into a same-length numeric column. It never
// fails: cells that cannot be read become 0 and are counted in Zeroed.
func CoerceColumn(values []interface{}) Coercion {
	out := Coercion{Values: make([]float64, len(values))}

	if isNumericColumn(values) {
		for i, v := range values {
			f, ok := utils.Numeric(v)
			if !ok || !finite(f) {
				out.Zeroed++
				f = 0
			}
			out.Values[i] = f
		}
		return out
	}

	failed := 0
	for i, v := range values {
		f, ok := ParseAmount(v, false)
		if !ok {
			failed++
		}
		out.Values[i] = f
	}

	if failed*2 > len(values) {
		out.LocaleApplied = true
		failed = 0
		for i, v := range values {
			f, ok := ParseAmount(v, true)
			if !ok {
				failed++
			}
			out.Values[i] = f
		}
	}

	out.Zeroed = failed
	return out
}

// isNumericColumn reports whether every cell is a number or missing.
func isNumericColumn(values []interface{}) bool {
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := utils.Numeric(v); !ok {
			if f, isFloat := v.(float64); isFloat && f != f {
				continue
			}
			return false
		}
	}
	return true
}

// CoerceBuckets adds the derived numeric column of every bucket to the table.
// Rows are copied so the caller's records are left untouched.
func CoerceBuckets(table *model.Table, layout model.Layout) (*model.Table, []Coercion) {
	rows := make([]model.GenericRecord, len(table.Rows))
	for i, rec := range table.Rows {
		cp := make(model.GenericRecord, len(rec)+len(layout.Buckets))
		for k, v := range rec {
			cp[k] = v
		}
		rows[i] = cp
	}

	columns := make([]string, 0, len(table.Columns)+len(layout.Buckets))
	for _, c := range table.Columns {
		if !model.IsInternalColumn(c) {
			columns = append(columns, c)
		}
	}

	results := make([]Coercion, 0, len(layout.Buckets))
	for _, bucket := range layout.BucketColumns() {
		raw := make([]interface{}, len(rows))
		for i, rec := range rows {
			raw[i] = rec[bucket]
		}

		res := CoerceColumn(raw)
		res.Column = bucket
		derived := model.NumericColumn(bucket)
		for i, rec := range rows {
			rec[derived] = res.Values[i]
		}
		columns = append(columns, derived)
		results = append(results, res)
	}

	return &model.Table{Columns: columns, Rows: rows}, results
}
