package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"aging-dashboard/internal/model"
	"aging-dashboard/pkg/utils"
)

// ErrUnknownGroup is returned when a breakdown is requested for a column
// that is not groupable.
var ErrUnknownGroup = errors.New("column cannot be used for a breakdown")

// sumColumn adds up the derived numeric column of bucket over table.
func sumColumn(table *model.Table, bucket string) float64 {
	derived := model.NumericColumn(bucket)
	total := 0.0
	for _, rec := range table.Rows {
		if f, ok := utils.Numeric(rec[derived]); ok {
			total += f
		}
	}
	return total
}

// rowTotal adds up every bucket of one row.
func rowTotal(rec model.GenericRecord, layout model.Layout) float64 {
	total := 0.0
	for _, b := range layout.Buckets {
		if f, ok := utils.Numeric(rec[model.NumericColumn(b.Column)]); ok {
			total += f
		}
	}
	return total
}

// Cards sums every bucket over base, in layout order.
func Cards(base *model.Table, layout model.Layout, format string) []model.Card {
	cards := make([]model.Card, 0, len(layout.Buckets))
	for _, b := range layout.Buckets {
		total := sumColumn(base, b.Column)
		cards = append(cards, model.Card{
			Column:    b.Column,
			Label:     b.Label,
			Total:     total,
			Formatted: FormatValue(total, format),
		})
	}
	return cards
}

// Chart keeps the positive cards and expresses each as a share of their sum.
func Chart(cards []model.Card) []model.Slice {
	sum := 0.0
	for _, c := range cards {
		if c.Total > 0 {
			sum += c.Total
		}
	}

	slices := make([]model.Slice, 0, len(cards))
	for _, c := range cards {
		if c.Total <= 0 {
			continue
		}
		slices = append(slices, model.Slice{
			Column:     c.Column,
			Label:      c.Label,
			Value:      c.Total,
			Proportion: c.Total / sum,
		})
	}
	return slices
}

// Breakdown groups table by column and returns the per-group totals of all
// buckets, largest first. Rows without a group value are skipped.
func Breakdown(table *model.Table, layout model.Layout, column string) ([]model.AggregatedResult, error) {
	if !model.IsGroupable(column) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, column)
	}

	groups := make(map[string]*model.AggregatedResult)
	for _, rec := range table.Rows {
		v, ok := rec[column]
		if !ok || utils.IsMissing(v) {
			continue
		}
		key := utils.Stringify(v)

		result, exists := groups[key]
		if !exists {
			result = &model.AggregatedResult{
				GroupKey:   column,
				GroupValue: key,
			}
			groups[key] = result
		}
		result.Total += rowTotal(rec, layout)
		result.RecordCount++
	}

	results := make([]model.AggregatedResult, 0, len(groups))
	for _, r := range groups {
		r.Millions = ToMillions(r.Total)
		results = append(results, *r)
	}
	SortAggregatedResults(results)
	return results, nil
}

// SortAggregatedResults orders groups by total descending, then by name.
func SortAggregatedResults(results []model.AggregatedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Total != results[j].Total {
			return results[i].Total > results[j].Total
		}
		return results[i].GroupValue < results[j].GroupValue
	})
}
