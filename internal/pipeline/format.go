package pipeline

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Display formats for card values.
const (
	FormatCurrency = "currency"
	FormatMillions = "millions"
)

// amountPattern groups thousands with "." and uses "," for decimals.
const amountPattern = "#.###,##"

// DefaultTruncateWidth is the display width of breakdown group names.
const DefaultTruncateWidth = 28

// FormatAmount renders v as "$ 1.234,56".
func FormatAmount(v float64) string {
	return "$ " + humanize.FormatFloat(amountPattern, v)
}

// FormatMillionsValue renders v in millions as "1,23M".
func FormatMillionsValue(v float64) string {
	return humanize.FormatFloat(amountPattern, v/1e6) + "M"
}

// FormatValue renders v in the requested display format. Unknown formats
// fall back to currency.
func FormatValue(v float64, format string) string {
	if format == FormatMillions {
		return FormatMillionsValue(v)
	}
	return FormatAmount(v)
}

// ToMillions converts v to millions rounded to two decimals.
func ToMillions(v float64) float64 {
	return math.Round(v/1e6*100) / 100
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
