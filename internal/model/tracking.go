package model

import "time"

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	Status           string        `json:"status"` // "running", "completed", "failed"
}

// PipelineMetrics represents one load or one recomputation pass
type PipelineMetrics struct {
	SessionID       string                  `json:"session_id"`
	TotalRecords    int64                   `json:"total_records"`
	FilteredRecords int64                   `json:"filtered_records"`
	ZeroedCells     int64                   `json:"zeroed_cells"`
	ProcessingTime  time.Duration           `json:"processing_time"`
	StageMetrics    map[string]StageMetrics `json:"stage_metrics"`
}
