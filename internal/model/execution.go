package model

import "time"

type ExecutionStatus string

const (
	StatusRunning ExecutionStatus = "running"
	StatusSuccess ExecutionStatus = "success"
	StatusFailed  ExecutionStatus = "failed"
	StatusTimeout ExecutionStatus = "timeout"
)

type TriggeredBy string

const (
	TriggeredBySchedule TriggeredBy = "schedule"
	TriggeredByManual   TriggeredBy = "manual"
	TriggeredByURL      TriggeredBy = "url"
	TriggeredByStartup  TriggeredBy = "startup"
)

// ExecutionRecord is the durable per-run record (spec §3). It is
// write-once after it reaches a terminal status.
type ExecutionRecord struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	ScriptID  uint  `gorm:"not null;index:idx_exec_script_started,priority:1" json:"script_id"`
	TriggerID *uint `gorm:"index" json:"trigger_id"`

	StartedAt  time.Time  `gorm:"not null;index:idx_exec_script_started,priority:2" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	DurationMs *int64     `json:"duration_ms"`

	Status   ExecutionStatus `gorm:"size:16;not null;index" json:"status"`
	ExitCode *int            `json:"exit_code"`

	Stdout          string `gorm:"type:text" json:"stdout"`
	Stderr          string `gorm:"type:text" json:"stderr"`
	StdoutTruncated bool   `gorm:"default:false" json:"stdout_truncated"`
	StderrTruncated bool   `gorm:"default:false" json:"stderr_truncated"`

	MemoryMB   *int     `json:"memory_mb"`
	CPUPercent *float64 `json:"cpu_percent"`

	TriggeredBy   TriggeredBy `gorm:"size:16" json:"triggered_by"`
	CorrelationID string      `gorm:"size:36;index" json:"correlation_id"`
}

func (ExecutionRecord) TableName() string { return "execution_records" }

// IsTerminal reports whether the record has reached a write-once status.
func (e ExecutionRecord) IsTerminal() bool {
	return e.Status != StatusRunning
}
