package pulp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Task states reported by the server.
const (
	TaskStateRunning  = "running"
	TaskStateWaiting  = "waiting"
	TaskStateFinished = "finished"
	TaskStateError    = "error"
	TaskStateCanceled = "canceled"
	TaskStateSkipped  = "skipped"
)

// Task is the task resource as polled from the server.
type Task struct {
	TaskID string      `json:"task_id"`
	State  string      `json:"state"`
	Error  interface{} `json:"error,omitempty"`
	Result *TaskResult `json:"result,omitempty"`
}

// TaskResult carries the outcome flag of a completed task. SuccessFlag is a
// pointer because older servers omit it entirely.
type TaskResult struct {
	SuccessFlag *bool `json:"success_flag,omitempty"`
}

// Terminal reports whether the task has stopped executing.
func (t *Task) Terminal() bool {
	switch t.State {
	case TaskStateFinished, TaskStateError, TaskStateCanceled, TaskStateSkipped:
		return true
	}
	return false
}

// Succeeded reports whether the task finished and did not flag a failure.
func (t *Task) Succeeded() bool {
	if t.State != TaskStateFinished {
		return false
	}
	if t.Result != nil && t.Result.SuccessFlag != nil {
		return *t.Result.SuccessFlag
	}
	return true
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "tasks/"+taskID+"/", nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return &task, nil
}

// AwaitTasks polls the referenced tasks sequentially until each reaches a
// terminal state, honoring the configured interval and overall timeout. The
// final state of every task is returned even when some did not succeed;
// callers decide what a failed task means.
func (c *Client) AwaitTasks(ctx context.Context, refs []TaskRef) ([]Task, error) {
	deadline := time.Now().Add(c.polling.Timeout)
	tasks := make([]Task, 0, len(refs))

	for _, ref := range refs {
		task, err := c.awaitTask(ctx, ref.TaskID, deadline)
		if err != nil {
			return tasks, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func (c *Client) awaitTask(ctx context.Context, taskID string, deadline time.Time) (*Task, error) {
	ticker := time.NewTicker(c.polling.Interval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.Terminal() {
			logrus.Debugf("Task %s reached state %s", taskID, task.State)
			return task, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for task %s (last state %s)", taskID, task.State)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
