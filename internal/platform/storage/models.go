package storage

import "time"

// ResizeJob is one row of the resize-job audit log.
type ResizeJob struct {
	ID           uint   `gorm:"primaryKey"`
	RequestID    string `gorm:"index;size:64"`
	SourceFormat string `gorm:"size:16"`
	SourceWidth  int
	SourceHeight int
	Oversized    bool
	TargetWidth  int
	TargetHeight int
	DPI          int
	OutputBytes  int
	Status       string `gorm:"size:16;index"` // completed | failed
	ErrorCode    string `gorm:"size:32"`
	DurationMs   int64
	CreatedAt    time.Time `gorm:"index"`
}

func (ResizeJob) TableName() string {
	return "resize_jobs"
}
