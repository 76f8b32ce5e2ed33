package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KuperOK/Translate-AI-helper/internal/models"
)

func setupTestRepo(t *testing.T) JobRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TranslationJob{}))

	return NewJobRepositoryWithDB(db)
}

func newTestJob(id string) *models.TranslationJob {
	return &models.TranslationJob{
		ID:       id,
		FileName: "input.txt",
		FilePath: "2026/08/23/" + id + ".txt",
		FileSize: 128,
		Model:    "gpt-4o-mini-2024-07-18",
		NumParts: 3,
		Status:   models.JobStatusPending,
	}
}

func TestJobLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	job := newTestJob("job-1")
	require.NoError(t, repo.Create(ctx, job))

	loaded, err := repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, loaded.Status)
	assert.Equal(t, 3, loaded.NumParts)
	assert.False(t, loaded.CreatedAt.IsZero())

	require.NoError(t, repo.UpdateStatus(ctx, "job-1", models.JobStatusProcessing))
	require.NoError(t, repo.UpdateProgress(ctx, "job-1", 2))

	loaded, err = repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, loaded.Status)
	assert.Equal(t, 2, loaded.Progress)

	require.NoError(t, repo.Complete(ctx, "job-1", "output 2026-08-23_10-00-00.txt", "out/path.txt", 1500*time.Millisecond, false))

	loaded, err = repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, loaded.Status)
	assert.Equal(t, int64(1500), loaded.DurationMs)
	assert.Equal(t, "output 2026-08-23_10-00-00.txt", loaded.OutputName)
	assert.NotNil(t, loaded.CompletedAt)
}

func TestJobProgressNeverMovesBackwards(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestJob("job-2")))
	require.NoError(t, repo.UpdateProgress(ctx, "job-2", 3))
	require.NoError(t, repo.UpdateProgress(ctx, "job-2", 1))

	loaded, err := repo.GetByID(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Progress)
}

func TestJobFail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestJob("job-3")))
	require.NoError(t, repo.Fail(ctx, "job-3", errors.New("provider unavailable")))

	loaded, err := repo.GetByID(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, loaded.Status)
	assert.Equal(t, "provider unavailable", loaded.Error)
	assert.Empty(t, loaded.OutputPath)
}

func TestJobNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", models.JobStatusFailed), ErrJobNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrJobNotFound)
}

func TestJobList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newTestJob(id)))
	}

	jobs, total, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, jobs, 2)
}
