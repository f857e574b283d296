package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"aging-dashboard/internal/logging"
	"aging-dashboard/internal/model"
	"aging-dashboard/internal/pipeline"
	"aging-dashboard/internal/store"
	"aging-dashboard/pkg/utils"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidFilter is returned for a column or value the session does not offer.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidFormat is returned for an unknown display or export format.
	ErrInvalidFormat = errors.New("invalid format")
)

// Recorder persists the session history. *store.Store implements it.
type Recorder interface {
	SaveSession(ctx context.Context, id, sourceName string) error
	CompleteSession(ctx context.Context, id, layout string, metrics model.PipelineMetrics) error
	UpdateSessionStatus(ctx context.Context, id, status string) error
	SaveSessionError(ctx context.Context, id string, err error) error
	SaveExport(ctx context.Context, sessionID string, res model.ExportResult) error
}

// Options configures a Manager.
type Options struct {
	Format        string
	MetricsScope  string
	TruncateWidth int
	TTL           time.Duration
}

// DefaultOptions returns the defaults used when a field is left empty.
func DefaultOptions() Options {
	return Options{
		Format:        pipeline.FormatCurrency,
		MetricsScope:  model.ScopeCustomer,
		TruncateWidth: pipeline.DefaultTruncateWidth,
	}
}

// Manager owns every live session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts     Options
	recorder Recorder
	metrics  *pipeline.Metrics
	exporter *pipeline.ExportManager
	logger   *logging.Logger
}

// NewManager creates a session manager. recorder and metrics may be nil.
func NewManager(opts Options, recorder Recorder, metrics *pipeline.Metrics, logger *logging.Logger) *Manager {
	def := DefaultOptions()
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.MetricsScope == "" {
		opts.MetricsScope = def.MetricsScope
	}
	if opts.TruncateWidth <= 0 {
		opts.TruncateWidth = def.TruncateWidth
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		recorder: recorder,
		metrics:  metrics,
		exporter: pipeline.NewExportManager(logger.Logger),
		logger:   logger.WithComponent("session"),
	}
}

// Load reads one uploaded sheet into a new session.
func (m *Manager) Load(ctx context.Context, name string, r io.Reader) (Info, error) {
	id := uuid.New().String()
	log := m.logger.WithSession(id)
	m.record(ctx, "save session", func(rec Recorder) error { return rec.SaveSession(ctx, id, name) })

	tracker := pipeline.NewPipelineTracker(id, m.metrics, log.Logger)
	ds, err := pipeline.Load(name, r, tracker)
	if err != nil {
		log.Warn("Load rejected", "source", name, "error", err)
		m.record(ctx, "save session error", func(rec Recorder) error { return rec.SaveSessionError(ctx, id, err) })
		m.record(ctx, "update session", func(rec Recorder) error { return rec.UpdateSessionStatus(ctx, id, store.StatusFailed) })
		return Info{}, err
	}

	metrics := tracker.Complete()
	m.record(ctx, "complete session", func(rec Recorder) error {
		return rec.CompleteSession(ctx, id, ds.Layout.Name, metrics)
	})

	cfg := model.NewConfig()
	cfg.MetricsScope = m.opts.MetricsScope
	now := time.Now()
	s := &Session{
		ID:         id,
		SourceName: name,
		CreatedAt:  now,
		dataset:    ds,
		cfg:        cfg,
		format:     m.opts.Format,
		lastAccess: now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("Session loaded",
		"source", name,
		"layout", ds.Layout.Name,
		"rows", ds.Table.Len(),
		"zeroed_cells", ds.ZeroedCells(),
		"duration", metrics.ProcessingTime)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// with runs fn with the session locked.
func (m *Manager) with(id string, fn func(s *Session) error) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return fn(s)
}

// Get returns a snapshot of one session.
func (m *Manager) Get(id string) (Info, error) {
	var info Info
	err := m.with(id, func(s *Session) error {
		info = s.snapshot()
		return nil
	})
	return info, err
}

// List returns a snapshot of every live session, newest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		out = append(out, s.snapshot())
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Options returns the filter choices and current selection of each column.
func (m *Manager) Options(id string) ([]FilterOption, error) {
	var out []FilterOption
	err := m.with(id, func(s *Session) error {
		out = s.options()
		return nil
	})
	return out, err
}

// SetFilter selects value for column. value must be model.AllValues or one
// of the column's distinct values.
func (m *Manager) SetFilter(id, column, value string) error {
	return m.with(id, func(s *Session) error {
		if !model.IsCategorical(column) {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidFilter, column)
		}
		if value != model.AllValues && !contains(s.dataset.Options[column], value) {
			return fmt.Errorf("%w: %q is not a value of %s", ErrInvalidFilter, value, column)
		}
		s.cfg.Filters[column] = value
		return nil
	})
}

// SelectSegment applies a chart click. An unknown label clears the active
// bucket; the returned string is the selected bucket column, if any.
func (m *Manager) SelectSegment(id, label string) (string, error) {
	var bucket string
	err := m.with(id, func(s *Session) error {
		col, ok := s.dataset.Layout.BucketForLabel(label)
		if !ok {
			s.cfg.ActiveBucket = ""
			return nil
		}
		s.cfg.ActiveBucket = col
		bucket = col
		return nil
	})
	return bucket, err
}

// Reset returns every filter to model.AllValues and clears the active bucket.
func (m *Manager) Reset(id string) error {
	return m.with(id, func(s *Session) error {
		s.cfg.Reset()
		return nil
	})
}

// SetFormat changes the session's default display format.
func (m *Manager) SetFormat(id, format string) error {
	if !validFormat(format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	return m.with(id, func(s *Session) error {
		s.format = format
		return nil
	})
}

// Dashboard recomputes the view. An empty format uses the session's format;
// a non-empty groups list replaces the configured breakdowns for this call.
func (m *Manager) Dashboard(ctx context.Context, id, format string, groups []string) (*Dashboard, error) {
	if format != "" && !validFormat(format) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	var out *Dashboard
	err := m.with(id, func(s *Session) error {
		if format == "" {
			format = s.format
		}
		cfg := s.cfg
		if len(groups) > 0 {
			cfg.GroupBy = groups
		}

		tracker := pipeline.NewPipelineTracker(id, m.metrics, m.logger.WithSession(id).Logger)
		res, err := pipeline.RunTracked(s.dataset, cfg, format, tracker)
		if err != nil {
			return err
		}

		out = &Dashboard{
			SessionID:    id,
			Format:       format,
			Config:       s.snapshot().Config,
			Cards:        res.Cards,
			Chart:        res.Chart,
			Breakdowns:   make(map[string][]BreakdownRow, len(res.Breakdowns)),
			GrandTotal:   res.GrandTotal,
			Formatted:    pipeline.FormatValue(res.GrandTotal, format),
			FilteredRows: res.Filtered.Len(),
			BaseRows:     res.Base.Len(),
		}
		for column, results := range res.Breakdowns {
			rows := make([]BreakdownRow, len(results))
			for i, g := range results {
				rows[i] = BreakdownRow{
					AggregatedResult: g,
					Display:          pipeline.Truncate(g.GroupValue, m.opts.TruncateWidth),
					Formatted:        pipeline.FormatMillionsValue(g.Total),
				}
			}
			out.Breakdowns[column] = rows
		}
		return nil
	})
	return out, err
}

// Rows returns one page of the filtered rows without derived columns.
func (m *Manager) Rows(id string, limit, offset int) (*Page, error) {
	var out *Page
	err := m.with(id, func(s *Session) error {
		filtered := pipeline.ApplyFilters(s.dataset.Table, s.cfg)
		columns := filtered.VisibleColumns()

		total := filtered.Len()
		if offset < 0 {
			offset = 0
		}
		if offset > total {
			offset = total
		}
		end := total
		if limit > 0 && offset+limit < total {
			end = offset + limit
		}

		rows := make([]map[string]interface{}, 0, end-offset)
		for _, rec := range filtered.Rows[offset:end] {
			row := make(map[string]interface{}, len(columns))
			for _, c := range columns {
				row[c] = rec[c]
			}
			rows = append(rows, row)
		}

		out = &Page{Columns: columns, Rows: rows, Total: total, Limit: limit, Offset: offset}
		return nil
	})
	return out, err
}

// Export serializes the filtered rows. fileType is "csv" or "xlsx". An XLSX
// failure is not an error: the result carries Success false and a warning.
func (m *Manager) Export(ctx context.Context, id, fileType string) (*pipeline.ExportFile, error) {
	var out *pipeline.ExportFile
	err := m.with(id, func(s *Session) error {
		tracker := pipeline.NewPipelineTracker(id, m.metrics, m.logger.WithSession(id).Logger)
		tracker.StartStage(pipeline.StageExport)
		filtered := pipeline.ApplyFilters(s.dataset.Table, s.cfg)

		switch fileType {
		case "csv":
			file, err := m.exporter.CSV(filtered)
			if err != nil {
				tracker.FailStage(pipeline.StageExport, "csv")
				tracker.RecordExport(fileType, false)
				return err
			}
			out = file
		case "xlsx":
			out = m.exporter.XLSX(filtered)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidFormat, fileType)
		}

		tracker.EndStage(pipeline.StageExport, out.RecordCount)
		tracker.RecordExport(fileType, out.Success)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := out.ExportResult
	m.record(ctx, "save export", func(rec Recorder) error { return rec.SaveExport(ctx, id, res) })
	return out, nil
}

// WriteExports writes the CSV and XLSX exports into om's directory. The CSV
// file is always attempted; the XLSX result may carry a warning instead.
func (m *Manager) WriteExports(ctx context.Context, id string, om *utils.OutputManager) ([]model.ExportResult, error) {
	results := make([]model.ExportResult, 0, 2)
	for _, fileType := range []string{"csv", "xlsx"} {
		file, err := m.Export(ctx, id, fileType)
		if err != nil {
			return results, err
		}
		if file.Success {
			path, err := om.WriteFile(file.Path, file.Data)
			if err != nil {
				return results, fmt.Errorf("failed to write %s: %w", file.Path, err)
			}
			file.Path = path
		}
		results = append(results, file.ExportResult)
	}
	return results, nil
}

// Close drops a session.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	m.record(ctx, "close session", func(rec Recorder) error { return rec.UpdateSessionStatus(ctx, id, store.StatusClosed) })
	m.logger.WithSession(id).Info("Session closed")
	return nil
}

// Sweep closes every session idle for longer than the configured TTL and
// returns how many were closed. A zero TTL keeps sessions forever.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.opts.TTL <= 0 {
		return 0
	}

	var expired []string
	m.mu.RLock()
	for id, s := range m.sessions {
		s.mu.Lock()
		if now.Sub(s.lastAccess) > m.opts.TTL {
			expired = append(expired, id)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if err := m.Close(ctx, id); err == nil {
			closed++
		}
	}
	return closed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := m.Sweep(ctx, now); n > 0 {
				m.logger.Info("Expired sessions closed", "count", n)
			}
		}
	}
}

// record writes to the history store. Store failures never fail the
// dashboard; they are logged.
func (m *Manager) record(ctx context.Context, what string, fn func(Recorder) error) {
	if m.recorder == nil {
		return
	}
	if err := fn(m.recorder); err != nil {
		m.logger.ErrorErr(ctx, "History store write failed", err, "operation", what)
	}
}

func validFormat(format string) bool {
	return format == pipeline.FormatCurrency || format == pipeline.FormatMillions
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
