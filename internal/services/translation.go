package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/KuperOK/Translate-AI-helper/internal/cache"
	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/models"
	"github.com/KuperOK/Translate-AI-helper/internal/prompt"
	"github.com/KuperOK/Translate-AI-helper/internal/repository"
	"github.com/KuperOK/Translate-AI-helper/internal/splitter"
	"github.com/KuperOK/Translate-AI-helper/internal/translator"
	"github.com/KuperOK/Translate-AI-helper/pkg/storage"
)

// Service-level failure conditions surfaced to the API layer.
var (
	// ErrInvalidCredential means the API key is missing or was rejected.
	ErrInvalidCredential = errors.New("completion service credential is missing or invalid")
	// ErrSplitCountOutOfRange means num_parts is outside the accepted range.
	ErrSplitCountOutOfRange = errors.New("split count is out of range")
	// ErrUnknownModel means the requested model is not selectable.
	ErrUnknownModel = errors.New("unknown model selection")
	// ErrJobNotCompleted means the output was requested before the job finished.
	ErrJobNotCompleted = errors.New("translation job is not completed")
)

// TranslationService drives an upload through split, translate and
// reassembly, and owns the idempotent re-entry contract: a completed
// translation for the same (file bytes, num_parts, model) is served from
// the result cache and never re-invokes the completion provider.
type TranslationService struct {
	storage     storage.Storage
	repo        repository.JobRepository
	resultCache cache.Cache
	client      llm.Client
	builder     *prompt.Builder
	logger      *logrus.Logger

	maxParts int
	cacheTTL time.Duration
}

// Option configures a TranslationService.
type Option func(*TranslationService)

// WithMaxParts caps the accepted split count (default 10).
func WithMaxParts(n int) Option {
	return func(s *TranslationService) {
		if n > 0 {
			s.maxParts = n
		}
	}
}

// WithCacheTTL sets the result cache lifetime (default 24h).
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *TranslationService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *TranslationService) { s.logger = logger }
}

// NewTranslationService wires the pipeline together.
func NewTranslationService(
	store storage.Storage,
	repo repository.JobRepository,
	resultCache cache.Cache,
	client llm.Client,
	builder *prompt.Builder,
	opts ...Option,
) *TranslationService {
	s := &TranslationService{
		storage:     store,
		repo:        repo,
		resultCache: resultCache,
		client:      client,
		builder:     builder,
		logger:      logrus.New(),
		maxParts:    10,
		cacheTTL:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckCredential verifies the provider credential before any translation
// is attempted. A rejected key blocks the whole session.
func (s *TranslationService) CheckCredential(ctx context.Context) error {
	validator, ok := s.client.(llm.KeyValidator)
	if !ok {
		return nil
	}
	if err := validator.CheckAPIKey(ctx); err != nil {
		if llm.ErrorCode(err) == llm.ErrCodeInvalidAPIKey {
			return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
		return err
	}
	return nil
}

// Submit validates and stores an upload, creates the job record, and
// resolves a cache hit without any provider calls. The returned job is
// either completed (cache hit) or pending (caller must run Process).
func (s *TranslationService) Submit(ctx context.Context, reader io.Reader, filename string, numParts int, model string) (*models.TranslationJob, error) {
	if numParts < 1 || numParts > s.maxParts {
		return nil, fmt.Errorf("%w: got %d, want 1..%d", ErrSplitCountOutOfRange, numParts, s.maxParts)
	}
	if !llm.IsKnownModel(model) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	// Reject undecodable content before anything is persisted.
	if _, err := splitter.Decode(data); err != nil {
		return nil, err
	}

	info, err := s.storage.Save(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	fingerprint := cache.ResultKey(data, numParts, model)
	job := &models.TranslationJob{
		ID:       uuid.New().String(),
		FileName: filename,
		FilePath: info.Path,
		FileSize: info.Size,
		Model:    model,
		NumParts: numParts,
		Status:   models.JobStatusPending,
		Metadata: datatypes.JSON([]byte(fmt.Sprintf(`{"fingerprint":%q}`, fingerprint))),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	// Re-entry contract: a known fingerprint completes the job from cache.
	if cached, found, err := s.resultCache.Get(fingerprint); err == nil && found {
		s.logger.WithFields(logrus.Fields{
			"job_id":   job.ID,
			"filename": filename,
		}).Info("Serving translation from result cache")

		if err := s.finishJob(ctx, job, cached, 0, true); err != nil {
			return nil, err
		}
		return s.repo.GetByID(ctx, job.ID)
	}

	return job, nil
}

// Process runs the translation loop for a pending job. It is all or
// nothing: any segment failure marks the job failed and no output artifact
// is produced.
func (s *TranslationService) Process(ctx context.Context, jobID string) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == models.JobStatusCompleted {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, jobID, models.JobStatusProcessing); err != nil {
		return err
	}

	result, data, err := s.translate(ctx, job)
	if err != nil {
		if failErr := s.repo.Fail(ctx, jobID, err); failErr != nil {
			s.logger.WithField("job_id", jobID).WithError(failErr).Error("Failed to record job failure")
		}
		return err
	}

	if err := s.finishJob(ctx, job, result.Text, result.Duration, false); err != nil {
		if failErr := s.repo.Fail(ctx, jobID, err); failErr != nil {
			s.logger.WithField("job_id", jobID).WithError(failErr).Error("Failed to record job failure")
		}
		return err
	}

	// Cache write is best effort; the job record is the source of truth.
	if err := s.resultCache.Set(cache.ResultKey(data, job.NumParts, job.Model), result.Text, s.cacheTTL); err != nil {
		s.logger.WithField("job_id", jobID).WithError(err).Warn("Failed to cache translation result")
	}

	return nil
}

// translate loads and splits the stored upload and runs the segment loop.
func (s *TranslationService) translate(ctx context.Context, job *models.TranslationJob) (*translator.Result, []byte, error) {
	reader, err := s.storage.Get(job.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored upload: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read stored upload: %w", err)
	}

	text, err := splitter.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	segments, err := splitter.SplitText(text, job.NumParts)
	if err != nil {
		return nil, nil, err
	}

	loop := translator.New(s.client, s.builder,
		translator.WithLogger(s.logger),
		translator.WithProgress(func(done, total int) {
			if err := s.repo.UpdateProgress(ctx, job.ID, done); err != nil {
				s.logger.WithField("job_id", job.ID).WithError(err).Warn("Failed to update job progress")
			}
		}),
	)

	result, err := loop.Translate(ctx, segments)
	if err != nil {
		return nil, nil, err
	}
	return result, data, nil
}

// finishJob stores the output artifact and marks the job completed.
func (s *TranslationService) finishJob(ctx context.Context, job *models.TranslationJob, text string, duration time.Duration, cached bool) error {
	outputName := OutputFileName(time.Now())
	info, err := s.storage.Save(strings.NewReader(text), outputName)
	if err != nil {
		return fmt.Errorf("failed to store output: %w", err)
	}

	if err := s.repo.UpdateProgress(ctx, job.ID, job.NumParts); err != nil {
		s.logger.WithField("job_id", job.ID).WithError(err).Warn("Failed to update job progress")
	}

	return s.repo.Complete(ctx, job.ID, outputName, info.Path, duration, cached)
}

// GetJob returns one job record.
func (s *TranslationService) GetJob(ctx context.Context, id string) (*models.TranslationJob, error) {
	return s.repo.GetByID(ctx, id)
}

// ListJobs returns jobs newest first.
func (s *TranslationService) ListJobs(ctx context.Context, offset, limit int) ([]models.TranslationJob, int64, error) {
	return s.repo.List(ctx, offset, limit)
}

// Output opens the generated file of a completed job for download.
func (s *TranslationService) Output(ctx context.Context, id string) (string, io.ReadCloser, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if job.Status != models.JobStatusCompleted {
		return "", nil, ErrJobNotCompleted
	}

	reader, err := s.storage.Get(job.OutputPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open output: %w", err)
	}
	return job.OutputName, reader, nil
}

// DeleteJob removes the job record and its stored files.
func (s *TranslationService) DeleteJob(ctx context.Context, id string) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, path := range []string{job.FilePath, job.OutputPath} {
		if path == "" {
			continue
		}
		if err := s.storage.Delete(path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.WithField("path", path).WithError(err).Warn("Failed to delete stored file")
		}
	}

	return s.repo.Delete(ctx, id)
}

// OutputFileName builds the download filename for a finished translation.
func OutputFileName(at time.Time) string {
	return "output " + at.Format("2006-01-02_15-04-05") + ".txt"
}
