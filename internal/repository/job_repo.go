package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/KuperOK/Translate-AI-helper/internal/database"
	"github.com/KuperOK/Translate-AI-helper/internal/models"
)

// ErrJobNotFound is returned when no job exists for the given ID.
var ErrJobNotFound = errors.New("translation job not found")

// JobRepository persists translation jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.TranslationJob) error
	GetByID(ctx context.Context, id string) (*models.TranslationJob, error)
	List(ctx context.Context, offset, limit int) ([]models.TranslationJob, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.JobStatus) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, outputName, outputPath string, duration time.Duration, cached bool) error
	Fail(ctx context.Context, id string, cause error) error
	Delete(ctx context.Context, id string) error
}

// gormJobRepository is the gorm-backed implementation.
type gormJobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a repository over the global database handle.
func NewJobRepository() JobRepository {
	return &gormJobRepository{db: database.MustDB()}
}

// NewJobRepositoryWithDB creates a repository over an explicit handle,
// mainly for tests.
func NewJobRepositoryWithDB(db *gorm.DB) JobRepository {
	return &gormJobRepository{db: db}
}

// Create inserts a new job record.
func (r *gormJobRepository) Create(ctx context.Context, job *models.TranslationJob) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create translation job: %w", err)
	}
	return nil
}

// GetByID loads one job.
func (r *gormJobRepository) GetByID(ctx context.Context, id string) (*models.TranslationJob, error) {
	var job models.TranslationJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load translation job: %w", err)
	}
	return &job, nil
}

// List returns jobs newest first, with the total count.
func (r *gormJobRepository) List(ctx context.Context, offset, limit int) ([]models.TranslationJob, int64, error) {
	var jobs []models.TranslationJob
	var total int64

	q := r.db.WithContext(ctx).Model(&models.TranslationJob{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count translation jobs: %w", err)
	}

	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list translation jobs: %w", err)
	}
	return jobs, total, nil
}

// UpdateStatus moves a job to a new lifecycle state.
func (r *gormJobRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus) error {
	return r.updates(ctx, id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
}

// UpdateProgress records completed segments. Progress only moves forward.
func (r *gormJobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	res := r.db.WithContext(ctx).
		Model(&models.TranslationJob{}).
		Where("id = ? AND progress < ?", id, progress).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update job progress: %w", res.Error)
	}
	return nil
}

// Complete marks a job done and records the output artifact.
func (r *gormJobRepository) Complete(ctx context.Context, id string, outputName, outputPath string, duration time.Duration, cached bool) error {
	now := time.Now()
	return r.updates(ctx, id, map[string]interface{}{
		"status":       models.JobStatusCompleted,
		"output_name":  outputName,
		"output_path":  outputPath,
		"duration_ms":  duration.Milliseconds(),
		"cached":       cached,
		"error":        "",
		"completed_at": now,
		"updated_at":   now,
	})
}

// Fail marks a job failed with its cause. No output is recorded.
func (r *gormJobRepository) Fail(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.updates(ctx, id, map[string]interface{}{
		"status":     models.JobStatusFailed,
		"error":      msg,
		"updated_at": time.Now(),
	})
}

// Delete removes a job record.
func (r *gormJobRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.TranslationJob{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete translation job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *gormJobRepository) updates(ctx context.Context, id string, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.TranslationJob{}).
		Where("id = ?", id).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update translation job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}
