package pipeline

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"aging-dashboard/internal/model"
	"aging-dashboard/pkg/utils"
)

// predicate keeps a row when it returns true.
type predicate func(model.GenericRecord) bool

func equals(column, value string) predicate {
	return func(rec model.GenericRecord) bool {
		v, ok := rec[column]
		if !ok || v == nil {
			return false
		}
		return utils.Stringify(v) == value
	}
}

func positive(bucket string) predicate {
	derived := model.NumericColumn(bucket)
	return func(rec model.GenericRecord) bool {
		f, ok := utils.Numeric(rec[derived])
		return ok && f > 0
	}
}

// predicates builds the categorical predicates in declared column order,
// followed by the active bucket predicate when one is set.
func predicates(cfg model.Config) []predicate {
	var preds []predicate
	for _, c := range model.Categoricals {
		if value, ok := cfg.Filters.Active(c.Column); ok {
			preds = append(preds, equals(c.Column, value))
		}
	}
	if cfg.ActiveBucket != "" {
		preds = append(preds, positive(cfg.ActiveBucket))
	}
	return preds
}

func selectRows(table *model.Table, preds []predicate) *model.Table {
	rows := make([]model.GenericRecord, 0, len(table.Rows))
	for _, rec := range table.Rows {
		keep := true
		for _, p := range preds {
			if !p(rec) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, rec)
		}
	}
	return table.View(rows)
}

// ApplyFilters returns the rows of table matching every active categorical
// filter and, if set, the active bucket. The source table is not modified.
func ApplyFilters(table *model.Table, cfg model.Config) *model.Table {
	return selectRows(table, predicates(cfg))
}

// MetricsBase returns the population cards and chart are computed over.
// Under ScopeCustomer only the customer filter applies: with no customer
// selected every row is counted, regardless of the other filters.
func MetricsBase(table *model.Table, filtered *model.Table, cfg model.Config) *model.Table {
	if cfg.MetricsScope == model.ScopeFiltered {
		return filtered
	}
	customer, ok := cfg.Filters.Active(model.ColumnCustomer)
	if !ok {
		return table
	}
	return selectRows(table, []predicate{equals(model.ColumnCustomer, customer)})
}

// DistinctValues returns the sorted set of non-missing values of column.
func DistinctValues(table *model.Table, column string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, rec := range table.Rows {
		v, ok := rec[column]
		if !ok || utils.IsMissing(v) {
			continue
		}
		s := utils.Stringify(v)
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	sortValues(values)
	return values
}

// sortValues orders all-numeric value sets by number, so codes such as
// "200" come before "1000"; anything else sorts as text.
func sortValues(values []string) {
	nums := make(map[string]float64, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			sort.Strings(values)
			return
		}
		nums[v] = f
	}
	sort.Slice(values, func(i, j int) bool {
		if nums[values[i]] != nums[values[j]] {
			return nums[values[i]] < nums[values[j]]
		}
		return values[i] < values[j]
	})
}

// FilterOptions returns the distinct values of every categorical column.
func FilterOptions(table *model.Table) map[string][]string {
	opts := make(map[string][]string, len(model.Categoricals))
	for _, c := range model.Categoricals {
		opts[c.Column] = DistinctValues(table, c.Column)
	}
	return opts
}
