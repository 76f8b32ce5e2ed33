package taskqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrTaskNotFound is returned when no task exists for the given ID.
var ErrTaskNotFound = errors.New("task not found")

// TaskType identifies the work a task carries.
type TaskType string

// TaskTranslateDocument runs the full translation pipeline for one job.
const TaskTranslateDocument TaskType = "translate_document"

// TaskStatus is the lifecycle state of a queued task.
type TaskStatus string

const (
	// StatusPending means the task waits in the queue.
	StatusPending TaskStatus = "pending"
	// StatusProcessing means a worker picked the task up.
	StatusProcessing TaskStatus = "processing"
	// StatusCompleted means the task finished successfully.
	StatusCompleted TaskStatus = "completed"
	// StatusFailed means the task failed after its retries.
	StatusFailed TaskStatus = "failed"
)

// Task is the queue-side record of one unit of work.
type Task struct {
	ID          string          `json:"id"`
	Type        TaskType        `json:"type"`
	JobID       string          `json:"job_id"` // translation job the task belongs to
	Status      TaskStatus      `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	Error       string          `json:"error"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at"`
	MaxRetries  int             `json:"max_retries"`
}

// TranslatePayload carries what a worker needs to run one translation job.
type TranslatePayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	NumParts int    `json:"num_parts"`
	Model    string `json:"model"`
}

// MarshalPayload serializes a payload for storage in the task record.
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// Config holds queue connection and retry settings.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	RetryLimit    int
	RetryDelay    time.Duration
}

// DefaultConfig returns the default queue settings.
func DefaultConfig() *Config {
	return &Config{
		RedisAddr:   "localhost:6379",
		Concurrency: 5,
		RetryLimit:  3,
		RetryDelay:  time.Minute,
	}
}
