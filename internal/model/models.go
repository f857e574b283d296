package model

// GenericRecord is one row of a loaded sheet, keyed by header name.
type GenericRecord map[string]interface{}

// Table is an ordered set of rows sharing the same header.
type Table struct {
	Columns []string        `json:"columns"`
	Rows    []GenericRecord `json:"rows"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the header contains column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// View returns a table over the given rows sharing this table's header.
// Rows are not copied.
func (t *Table) View(rows []GenericRecord) *Table {
	return &Table{Columns: t.Columns, Rows: rows}
}

// VisibleColumns returns the header without derived numeric columns.
func (t *Table) VisibleColumns() []string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !IsInternalColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Selection maps a categorical column to AllValues or one concrete value.
// A column absent from the map is treated as AllValues.
type Selection map[string]string

// NewSelection returns a selection with every categorical set to AllValues.
func NewSelection() Selection {
	sel := make(Selection, len(Categoricals))
	for _, c := range Categoricals {
		sel[c.Column] = AllValues
	}
	return sel
}

// Active returns the selected value of column and whether it restricts rows.
func (s Selection) Active(column string) (string, bool) {
	v, ok := s[column]
	if !ok || v == "" || v == AllValues {
		return "", false
	}
	return v, true
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Metrics scopes for cards and chart.
const (
	ScopeCustomer = "customer"
	ScopeFiltered = "filtered"
)

// Config is the per-session input of one pipeline run.
type Config struct {
	Filters      Selection `json:"filters"`
	ActiveBucket string    `json:"active_bucket,omitempty"`
	// MetricsScope selects the base population of cards and chart:
	// ScopeCustomer (default) restricts only by the customer filter,
	// ScopeFiltered uses the fully filtered table.
	MetricsScope string   `json:"metrics_scope,omitempty"`
	GroupBy      []string `json:"group_by,omitempty"`
}

// NewConfig returns a reset configuration.
func NewConfig() Config {
	return Config{
		Filters:      NewSelection(),
		MetricsScope: ScopeCustomer,
		GroupBy:      append([]string(nil), GroupableColumns...),
	}
}

// Reset returns every filter to AllValues and clears the active bucket.
func (c *Config) Reset() {
	c.Filters = NewSelection()
	c.ActiveBucket = ""
}
