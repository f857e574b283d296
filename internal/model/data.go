package model

import "time"

// Card is the total of one bucket over the metrics base.
type Card struct {
	Column    string  `json:"column"`
	Label     string  `json:"label"`
	Total     float64 `json:"total"`
	Formatted string  `json:"formatted"`
}

// Slice is one positive segment of the proportions chart.
type Slice struct {
	Column     string  `json:"column"`
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Proportion float64 `json:"proportion"`
}

// AggregatedResult is one group of a breakdown table.
type AggregatedResult struct {
	GroupKey    string  `json:"group_key"`
	GroupValue  string  `json:"group_value"`
	Total       float64 `json:"total"`
	Millions    float64 `json:"millions"`
	RecordCount int     `json:"record_count"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "xlsx"
	Path        string    `json:"path"` // file name offered to the user
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Warning     string    `json:"warning,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
