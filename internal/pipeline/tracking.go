package pipeline

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aging-dashboard/internal/model"
)

// Stage names.
const (
	StageIngestion   = "ingestion"
	StageValidation  = "validation"
	StageCoercion    = "coercion"
	StageFilter      = "filter"
	StageAggregation = "aggregation"
	StageExport      = "export"
)

// Metrics holds the Prometheus collectors fed by pipeline trackers.
type Metrics struct {
	StageDuration *prometheus.HistogramVec
	RowsLoaded    prometheus.Counter
	ZeroedCells   *prometheus.CounterVec
	LoadFailures  *prometheus.CounterVec
	Exports       *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aging",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aging",
			Subsystem: "pipeline",
			Name:      "rows_loaded_total",
			Help:      "Rows read from uploaded sheets.",
		}),
		ZeroedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aging",
			Subsystem: "pipeline",
			Name:      "zeroed_cells_total",
			Help:      "Bucket cells that could not be parsed and were set to zero.",
		}, []string{"column"}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aging",
			Subsystem: "pipeline",
			Name:      "load_failures_total",
			Help:      "Loads rejected before filtering.",
		}, []string{"reason"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aging",
			Subsystem: "pipeline",
			Name:      "exports_total",
			Help:      "Exports by file type and outcome.",
		}, []string{"type", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.StageDuration, m.RowsLoaded, m.ZeroedCells, m.LoadFailures, m.Exports)
	}
	return m
}

// PipelineTracker records stage timings of one load or one recomputation.
type PipelineTracker struct {
	Metrics model.PipelineMetrics
	start   time.Time
	prom    *Metrics
	logger  *slog.Logger
}

// NewPipelineTracker creates a tracker. prom may be nil.
func NewPipelineTracker(sessionID string, prom *Metrics, logger *slog.Logger) *PipelineTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineTracker{
		Metrics: model.PipelineMetrics{
			SessionID:    sessionID,
			StageMetrics: make(map[string]model.StageMetrics),
		},
		start:  time.Now(),
		prom:   prom,
		logger: logger,
	}
}

// StartStage marks the start of a pipeline stage
func (pt *PipelineTracker) StartStage(stage string) {
	pt.Metrics.StageMetrics[stage] = model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
		Status:    "running",
	}
}

// EndStage marks the end of a pipeline stage
func (pt *PipelineTracker) EndStage(stage string, recordsProcessed int) {
	pt.finish(stage, recordsProcessed, "completed")
}

// FailStage marks a stage as failed
func (pt *PipelineTracker) FailStage(stage, reason string) {
	pt.finish(stage, 0, "failed")
	if pt.prom != nil {
		pt.prom.LoadFailures.WithLabelValues(reason).Inc()
	}
}

func (pt *PipelineTracker) finish(stage string, recordsProcessed int, status string) {
	sm, ok := pt.Metrics.StageMetrics[stage]
	if !ok {
		sm = model.StageMetrics{StageName: stage, StartTime: time.Now()}
	}
	sm.EndTime = time.Now()
	sm.Duration = sm.EndTime.Sub(sm.StartTime)
	sm.RecordsProcessed = int64(recordsProcessed)
	sm.Status = status
	pt.Metrics.StageMetrics[stage] = sm

	if pt.prom != nil {
		pt.prom.StageDuration.WithLabelValues(stage).Observe(sm.Duration.Seconds())
	}
	pt.logger.Debug("Stage finished",
		slog.String("stage", stage),
		slog.String("status", status),
		slog.Int("records", recordsProcessed),
		slog.Duration("duration", sm.Duration))
}

// RecordCoercion adds the zeroed cells of each coerced column.
func (pt *PipelineTracker) RecordCoercion(results []Coercion) {
	for _, r := range results {
		pt.Metrics.ZeroedCells += int64(r.Zeroed)
		if pt.prom != nil && r.Zeroed > 0 {
			pt.prom.ZeroedCells.WithLabelValues(r.Column).Add(float64(r.Zeroed))
		}
	}
}

// RecordLoad counts the rows of a successful load.
func (pt *PipelineTracker) RecordLoad(rows int) {
	pt.Metrics.TotalRecords = int64(rows)
	if pt.prom != nil {
		pt.prom.RowsLoaded.Add(float64(rows))
	}
}

// RecordExport counts one export attempt.
func (pt *PipelineTracker) RecordExport(fileType string, success bool) {
	if pt.prom == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	pt.prom.Exports.WithLabelValues(fileType, outcome).Inc()
}

// Complete closes the run and returns its metrics.
func (pt *PipelineTracker) Complete() model.PipelineMetrics {
	pt.Metrics.ProcessingTime = time.Since(pt.start)
	return pt.Metrics
}
