package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TranslationProcessor is the service-side operation a translate task runs.
// It matches services.TranslationService.Process.
type TranslationProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// TranslateHandler runs queued translation jobs through the service.
type TranslateHandler struct {
	processor TranslationProcessor
	logger    *logrus.Logger
}

// NewTranslateHandler creates the handler for translate_document tasks.
func NewTranslateHandler(processor TranslationProcessor, logger *logrus.Logger) *TranslateHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &TranslateHandler{processor: processor, logger: logger}
}

// TaskType names the handled task type.
func (h *TranslateHandler) TaskType() TaskType {
	return TaskTranslateDocument
}

// ProcessTask unpacks the payload and runs the translation pipeline.
func (h *TranslateHandler) ProcessTask(ctx context.Context, task *Task) error {
	var payload TranslatePayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal translate payload: %w", err)
	}
	if payload.JobID == "" {
		return fmt.Errorf("translate task %s has no job id", task.ID)
	}

	h.logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"job_id":    payload.JobID,
		"num_parts": payload.NumParts,
		"model":     payload.Model,
	}).Info("Processing translation task")

	return h.processor.Process(ctx, payload.JobID)
}
