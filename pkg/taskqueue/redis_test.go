package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	mr := miniredis.RunT(t)

	queue, err := NewRedisQueue(&Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 1,
		RetryLimit:  2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })
	return queue
}

func TestEnqueueAndGetTask(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	payload := TranslatePayload{
		JobID:    "job-1",
		FilePath: "2026/08/23/abc.txt",
		NumParts: 3,
		Model:    "gpt-4o-mini-2024-07-18",
	}

	taskID, err := queue.Enqueue(ctx, TaskTranslateDocument, "job-1", payload)
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, TaskTranslateDocument, task.Type)
	assert.Equal(t, "job-1", task.JobID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, 2, task.MaxRetries)

	var decoded TranslatePayload
	require.NoError(t, json.Unmarshal(task.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestUpdateTaskStatus(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	taskID, err := queue.Enqueue(ctx, TaskTranslateDocument, "job-2", TranslatePayload{JobID: "job-2"})
	require.NoError(t, err)

	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusProcessing, ""))
	task, err := queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.Nil(t, task.CompletedAt)

	require.NoError(t, queue.UpdateTaskStatus(ctx, taskID, StatusFailed, "provider down"))
	task, err = queue.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "provider down", task.Error)
	assert.NotNil(t, task.CompletedAt)
}

func TestGetTaskNotFound(t *testing.T) {
	queue := newTestQueue(t)

	_, err := queue.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// fakeProcessor records which jobs it was asked to run.
type fakeProcessor struct {
	jobs []string
	err  error
}

func (p *fakeProcessor) Process(ctx context.Context, jobID string) error {
	p.jobs = append(p.jobs, jobID)
	return p.err
}

func TestTranslateHandler(t *testing.T) {
	t.Run("runs the job from the payload", func(t *testing.T) {
		processor := &fakeProcessor{}
		handler := NewTranslateHandler(processor, nil)
		assert.Equal(t, TaskTranslateDocument, handler.TaskType())

		payload, err := MarshalPayload(TranslatePayload{JobID: "job-3", NumParts: 2})
		require.NoError(t, err)

		err = handler.ProcessTask(context.Background(), &Task{ID: "t1", Payload: payload})
		require.NoError(t, err)
		assert.Equal(t, []string{"job-3"}, processor.jobs)
	})

	t.Run("propagates processing failures", func(t *testing.T) {
		processor := &fakeProcessor{err: errors.New("boom")}
		handler := NewTranslateHandler(processor, nil)

		payload, err := MarshalPayload(TranslatePayload{JobID: "job-4"})
		require.NoError(t, err)

		err = handler.ProcessTask(context.Background(), &Task{ID: "t2", Payload: payload})
		assert.Error(t, err)
	})

	t.Run("rejects a payload without a job id", func(t *testing.T) {
		handler := NewTranslateHandler(&fakeProcessor{}, nil)

		payload, err := MarshalPayload(TranslatePayload{})
		require.NoError(t, err)

		err = handler.ProcessTask(context.Background(), &Task{ID: "t3", Payload: payload})
		assert.Error(t, err)
	})
}
