package session

import (
	"sync"
	"time"

	"aging-dashboard/internal/model"
	"aging-dashboard/internal/pipeline"
)

// Session is one loaded sheet and the dashboard state built on top of it.
type Session struct {
	ID         string
	SourceName string
	CreatedAt  time.Time

	mu         sync.Mutex
	dataset    *pipeline.Dataset
	cfg        model.Config
	format     string
	lastAccess time.Time
}

// Info is a read-only snapshot of a session.
type Info struct {
	ID          string              `json:"id"`
	SourceName  string              `json:"source_name"`
	Layout      string              `json:"layout"`
	Rows        int                 `json:"rows"`
	ZeroedCells int                 `json:"zeroed_cells"`
	Coercions   []pipeline.Coercion `json:"coercions"`
	Config      model.Config        `json:"config"`
	Format      string              `json:"format"`
	CreatedAt   time.Time           `json:"created_at"`
	LastAccess  time.Time           `json:"last_access"`
}

// FilterOption lists the choices of one categorical column. Values always
// start with model.AllValues.
type FilterOption struct {
	Column   string   `json:"column"`
	Label    string   `json:"label"`
	Values   []string `json:"values"`
	Selected string   `json:"selected"`
}

// BreakdownRow is one breakdown group ready for display.
type BreakdownRow struct {
	model.AggregatedResult
	Display   string `json:"display"`
	Formatted string `json:"formatted"`
}

// Dashboard is everything a client needs to draw the current view.
type Dashboard struct {
	SessionID    string                    `json:"session_id"`
	Format       string                    `json:"format"`
	Config       model.Config              `json:"config"`
	Cards        []model.Card              `json:"cards"`
	Chart        []model.Slice             `json:"chart"`
	Breakdowns   map[string][]BreakdownRow `json:"breakdowns"`
	GrandTotal   float64                   `json:"grand_total"`
	Formatted    string                    `json:"grand_total_formatted"`
	FilteredRows int                       `json:"filtered_rows"`
	BaseRows     int                       `json:"base_rows"`
}

// Page is one slice of the filtered detail view.
type Page struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
	Total   int                      `json:"total"`
	Limit   int                      `json:"limit"`
	Offset  int                      `json:"offset"`
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() Info {
	cfg := s.cfg
	cfg.Filters = s.cfg.Filters.Clone()
	cfg.GroupBy = append([]string(nil), s.cfg.GroupBy...)
	return Info{
		ID:          s.ID,
		SourceName:  s.SourceName,
		Layout:      s.dataset.Layout.Name,
		Rows:        s.dataset.Table.Len(),
		ZeroedCells: s.dataset.ZeroedCells(),
		Coercions:   s.dataset.Coercions,
		Config:      cfg,
		Format:      s.format,
		CreatedAt:   s.CreatedAt,
		LastAccess:  s.lastAccess,
	}
}

// options must be called with s.mu held.
func (s *Session) options() []FilterOption {
	out := make([]FilterOption, 0, len(s.dataset.Layout.Categoricals))
	for _, c := range s.dataset.Layout.Categoricals {
		values := append([]string{model.AllValues}, s.dataset.Options[c.Column]...)
		selected := s.cfg.Filters[c.Column]
		if selected == "" {
			selected = model.AllValues
		}
		out = append(out, FilterOption{Column: c.Column, Label: c.Label, Values: values, Selected: selected})
	}
	return out
}

func (s *Session) touch() {
	s.lastAccess = time.Now()
}
