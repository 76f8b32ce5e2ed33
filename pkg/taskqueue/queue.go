package taskqueue

import (
	"context"
)

// Queue enqueues translation work and tracks task state.
type Queue interface {
	// Enqueue adds a task and returns its ID.
	Enqueue(ctx context.Context, taskType TaskType, jobID string, payload interface{}) (string, error)

	// GetTask returns the stored task record.
	GetTask(ctx context.Context, taskID string) (*Task, error)

	// UpdateTaskStatus moves a task to a new state, recording an error
	// message for failures.
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus, errorMsg string) error

	// Close releases queue connections.
	Close() error
}

// Handler executes one task type on a worker.
type Handler interface {
	// ProcessTask runs the task. A returned error triggers asynq's retry
	// policy up to the configured limit.
	ProcessTask(ctx context.Context, task *Task) error

	// TaskType names the task type this handler serves.
	TaskType() TaskType
}

// Worker consumes the queue with a set of registered handlers.
type Worker interface {
	// RegisterHandler binds a handler to its task type.
	RegisterHandler(handler Handler)

	// Start begins processing in the background.
	Start() error

	// Stop drains and shuts the worker down.
	Stop()
}
