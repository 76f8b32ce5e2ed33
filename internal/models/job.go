package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus is the lifecycle state of a translation job.
type JobStatus string

const (
	// JobStatusPending means the upload is stored and the job is queued.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing means the segment loop is running.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted means the output file is ready for download.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed means the run aborted; no output exists.
	JobStatusFailed JobStatus = "failed"
)

// TranslationJob tracks one uploaded file through the translation pipeline.
type TranslationJob struct {
	ID          string         `gorm:"primaryKey"`         // job ID
	FileName    string         `gorm:"not null"`           // original upload name
	FilePath    string         `gorm:"not null"`           // stored upload path
	FileSize    int64          `gorm:"not null"`           // upload size in bytes
	Model       string         `gorm:"not null;size:64"`   // selected completion model
	NumParts    int            `gorm:"not null"`           // requested split count
	Status      JobStatus      `gorm:"not null;index"`     // lifecycle state
	Progress    int            `gorm:"not null;default:0"` // completed segments, 0..NumParts
	DurationMs  int64          `gorm:"default:0"`          // wall-clock translation time
	OutputName  string         `gorm:"size:255"`           // download filename
	OutputPath  string         `gorm:"size:255"`           // stored output path
	Cached      bool           `gorm:"default:false"`      // served from the result cache
	Error       string         `gorm:"type:text"`          // failure message, if any
	Metadata    datatypes.JSON `gorm:"type:json"`          // fingerprint and friends
	CreatedAt   time.Time      `gorm:"not null;index"`
	UpdatedAt   time.Time      `gorm:"not null"`
	CompletedAt *time.Time     `gorm:"index"`
}

// BeforeCreate stamps creation time.
func (j *TranslationJob) BeforeCreate(tx *gorm.DB) (err error) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.UpdatedAt = time.Now()
	return nil
}

// BeforeUpdate refreshes the update time.
func (j *TranslationJob) BeforeUpdate(tx *gorm.DB) (err error) {
	j.UpdatedAt = time.Now()
	return nil
}

// TableName pins the table name.
func (TranslationJob) TableName() string {
	return "translation_jobs"
}
