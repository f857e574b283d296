package pipeline

import (
	"fmt"
	"strings"

	"aging-dashboard/internal/model"
)

// SchemaError reports every required column a loaded table lacks.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// MissingColumns returns the required columns absent from columns, in
// required order. Header names are compared after trimming whitespace.
func MissingColumns(columns []string, required []string) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[strings.TrimSpace(c)] = true
	}

	missing := make([]string, 0)
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// DetectLayout picks the layout a header satisfies. A header carrying every
// aging bucket is full; one carrying the single amount column is narrow.
// Otherwise the full layout is returned so validation reports its gaps.
func DetectLayout(columns []string) model.Layout {
	if len(MissingColumns(columns, model.FullLayout.BucketColumns())) == 0 {
		return model.FullLayout
	}
	if len(MissingColumns(columns, model.NarrowLayout.BucketColumns())) == 0 {
		return model.NarrowLayout
	}
	return model.FullLayout
}

// ValidateSchema checks table against layout and returns a *SchemaError
// listing every missing column.
func ValidateSchema(table *model.Table, layout model.Layout) error {
	missing := MissingColumns(table.Columns, layout.Required())
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
