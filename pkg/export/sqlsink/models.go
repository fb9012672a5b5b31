package sqlsink

import (
	"time"
)

// ImportRun records one export into the database, successful or not.
type ImportRun struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Source       string     `gorm:"not null;size:1024" json:"source"`
	Target       string     `gorm:"not null;size:255;index" json:"target"`
	Variables    int        `gorm:"not null" json:"variables"`
	RecordLength int        `gorm:"not null" json:"record_length"`
	Rows         int64      `gorm:"not null;default:0" json:"rows"`
	Status       string     `gorm:"not null;size:16;index" json:"status"`
	Error        string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// TableName returns the table name for ImportRun.
func (ImportRun) TableName() string {
	return "xpt_import_runs"
}

// AllModels lists the models migrated when the sink opens.
func AllModels() []any {
	return []any{&ImportRun{}}
}
