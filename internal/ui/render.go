package ui

import (
	"fmt"
	"strings"

	"aging-dashboard/internal/model"
	"aging-dashboard/internal/session"
)

const barWidth = 30

// bar draws proportion (0..1) as a fixed-width block bar.
func bar(proportion float64, width int) string {
	if width <= 0 {
		return ""
	}
	if proportion < 0 {
		proportion = 0
	}
	if proportion > 1 {
		proportion = 1
	}
	filled := int(proportion*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// percent renders a proportion with a decimal comma, like the amounts.
func percent(proportion float64) string {
	return strings.Replace(fmt.Sprintf("%.1f%%", proportion*100), ".", ",", 1)
}

// nextGroup returns the breakdown column after current, wrapping around.
func nextGroup(current string) string {
	for i, c := range model.GroupableColumns {
		if c == current {
			return model.GroupableColumns[(i+1)%len(model.GroupableColumns)]
		}
	}
	return model.GroupableColumns[0]
}

// groupLabel is the filter label of a categorical column.
func groupLabel(column string) string {
	for _, c := range model.Categoricals {
		if c.Column == column {
			return c.Label
		}
	}
	return column
}

// segmentForKey maps '1'..'9' to the chart label of the matching card.
// '0' and keys past the last card return "", which clears the selection.
func segmentForKey(r rune, cards []model.Card) (string, bool) {
	if r < '0' || r > '9' {
		return "", false
	}
	i := int(r - '1')
	if i < 0 || i >= len(cards) {
		return "", true
	}
	return cards[i].Label, true
}

// chartRow is one line of the proportions panel.
type chartRow struct {
	Label   string
	Bar     string
	Percent string
	Color   string
}

func chartRows(dash *session.Dashboard) []chartRow {
	colors := make(map[string]string, len(dash.Cards))
	for i, c := range dash.Cards {
		colors[c.Column] = bucketColor(i)
	}
	rows := make([]chartRow, 0, len(dash.Chart))
	for _, s := range dash.Chart {
		rows = append(rows, chartRow{
			Label:   s.Label,
			Bar:     bar(s.Proportion, barWidth),
			Percent: percent(s.Proportion),
			Color:   colors[s.Column],
		})
	}
	return rows
}

// statusLine summarizes the current filters for the header.
func statusLine(dash *session.Dashboard) string {
	var parts []string
	for _, c := range model.Categoricals {
		if v, ok := dash.Config.Filters.Active(c.Column); ok {
			parts = append(parts, c.Label+"="+v)
		}
	}
	if dash.Config.ActiveBucket != "" {
		parts = append(parts, "segment="+dash.Config.ActiveBucket)
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, ", ")
}
