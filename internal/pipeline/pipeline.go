package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"aging-dashboard/internal/model"
)

// Dataset is a validated table with its derived numeric columns.
type Dataset struct {
	Table     *model.Table        `json:"-"`
	Layout    model.Layout        `json:"layout"`
	Options   map[string][]string `json:"options"`
	Coercions []Coercion          `json:"coercions"`
}

// ZeroedCells returns how many bucket cells were coerced to zero.
func (d *Dataset) ZeroedCells() int {
	n := 0
	for _, c := range d.Coercions {
		n += c.Zeroed
	}
	return n
}

// Result is everything one recomputation pass produces.
type Result struct {
	Filtered   *model.Table                        `json:"-"`
	Base       *model.Table                        `json:"-"`
	Cards      []model.Card                        `json:"cards"`
	Chart      []model.Slice                       `json:"chart"`
	Breakdowns map[string][]model.AggregatedResult `json:"breakdowns"`
	GrandTotal float64                             `json:"grand_total"`
}

// Load reads, validates and coerces one uploaded file.
func Load(name string, r io.Reader, tracker *PipelineTracker) (*Dataset, error) {
	if tracker == nil {
		tracker = discardTracker()
	}

	tracker.StartStage(StageIngestion)
	raw, err := LoadReader(name, r)
	if err != nil {
		tracker.FailStage(StageIngestion, "unreadable")
		return nil, err
	}
	tracker.EndStage(StageIngestion, raw.Len())

	return Prepare(raw, tracker)
}

// Prepare validates raw against the detected layout, adds the derived
// numeric columns and computes the filter options.
func Prepare(raw *model.Table, tracker *PipelineTracker) (*Dataset, error) {
	if tracker == nil {
		tracker = discardTracker()
	}

	table := normalizeHeaders(raw)

	tracker.StartStage(StageValidation)
	layout := DetectLayout(table.Columns)
	if err := ValidateSchema(table, layout); err != nil {
		tracker.FailStage(StageValidation, "missing_columns")
		return nil, err
	}
	tracker.EndStage(StageValidation, table.Len())

	tracker.StartStage(StageCoercion)
	coerced, results := CoerceBuckets(table, layout)
	tracker.RecordCoercion(results)
	tracker.EndStage(StageCoercion, coerced.Len())
	tracker.RecordLoad(coerced.Len())

	for _, r := range results {
		if r.Zeroed > 0 {
			tracker.logger.Warn("Bucket cells set to zero",
				slog.String("column", r.Column),
				slog.Int("zeroed", r.Zeroed),
				slog.Bool("locale_applied", r.LocaleApplied))
		}
	}

	return &Dataset{
		Table:     coerced,
		Layout:    layout,
		Options:   FilterOptions(coerced),
		Coercions: results,
	}, nil
}

// Run applies cfg to the dataset and aggregates the outcome. It does not
// modify ds.
func Run(ds *Dataset, cfg model.Config, format string) (*Result, error) {
	return RunTracked(ds, cfg, format, nil)
}

// RunTracked is Run with stage timings recorded on tracker.
func RunTracked(ds *Dataset, cfg model.Config, format string, tracker *PipelineTracker) (*Result, error) {
	if ds == nil || ds.Table == nil {
		return nil, errors.New("no dataset loaded")
	}
	if tracker == nil {
		tracker = discardTracker()
	}
	if cfg.Filters == nil {
		cfg.Filters = model.NewSelection()
	}
	if cfg.ActiveBucket != "" && !ds.Layout.HasBucket(cfg.ActiveBucket) {
		cfg.ActiveBucket = ""
	}

	tracker.StartStage(StageFilter)
	filtered := ApplyFilters(ds.Table, cfg)
	base := MetricsBase(ds.Table, filtered, cfg)
	tracker.EndStage(StageFilter, filtered.Len())
	tracker.Metrics.FilteredRecords = int64(filtered.Len())

	tracker.StartStage(StageAggregation)
	cards := Cards(base, ds.Layout, format)
	result := &Result{
		Filtered:   filtered,
		Base:       base,
		Cards:      cards,
		Chart:      Chart(cards),
		Breakdowns: make(map[string][]model.AggregatedResult, len(cfg.GroupBy)),
	}
	for _, c := range cards {
		result.GrandTotal += c.Total
	}
	for _, column := range cfg.GroupBy {
		groups, err := Breakdown(filtered, ds.Layout, column)
		if err != nil {
			tracker.FailStage(StageAggregation, "unknown_group")
			return nil, err
		}
		result.Breakdowns[column] = groups
	}
	tracker.EndStage(StageAggregation, len(cards))

	return result, nil
}

// normalizeHeaders trims incidental whitespace from header names.
func normalizeHeaders(t *model.Table) *model.Table {
	changed := false
	columns := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = strings.TrimSpace(c)
		if columns[i] != c {
			changed = true
		}
	}
	if !changed {
		return t
	}

	rows := make([]model.GenericRecord, len(t.Rows))
	for i, rec := range t.Rows {
		cp := make(model.GenericRecord, len(rec))
		for k, v := range rec {
			cp[strings.TrimSpace(k)] = v
		}
		rows[i] = cp
	}
	return &model.Table{Columns: columns, Rows: rows}
}

func discardTracker() *PipelineTracker {
	return NewPipelineTracker("", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
