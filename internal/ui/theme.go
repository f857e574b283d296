package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Chart colors, one per bucket in layout order. Wraps for longer layouts.
var bucketColors = []string{
	"#9ccfd8", // foam
	"#3e8fb0", // pine
	"#c4a7e7", // iris
	"#f6c177", // gold
	"#ea9a97", // rose
	"#eb6f92", // love
	"#908caa", // subtle
	"#e0def4", // text
	"#6e6a86", // muted
}

// SetupRosePineTheme applies the Rose Pine moon palette to every primitive.
func SetupRosePineTheme() {
	tview.Styles = tview.Theme{
		PrimitiveBackgroundColor:    tcell.NewRGBColor(35, 33, 54),
		ContrastBackgroundColor:     tcell.NewRGBColor(42, 39, 63),
		MoreContrastBackgroundColor: tcell.NewRGBColor(57, 53, 82),
		BorderColor:                 tcell.NewRGBColor(110, 106, 134),
		TitleColor:                  tcell.NewRGBColor(235, 188, 186),
		GraphicsColor:               tcell.NewRGBColor(156, 207, 216),
		PrimaryTextColor:            tcell.NewRGBColor(224, 222, 244),
		SecondaryTextColor:          tcell.NewRGBColor(144, 140, 170),
		TertiaryTextColor:           tcell.NewRGBColor(110, 106, 134),
		InverseTextColor:            tcell.NewRGBColor(35, 33, 54),
		ContrastSecondaryTextColor:  tcell.NewRGBColor(224, 222, 244),
	}
}

func bucketColor(i int) string {
	return bucketColors[i%len(bucketColors)]
}
