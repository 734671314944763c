package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// CreateTask submits texts for background translation.
func (c *Client) CreateTask(ctx context.Context, req TranslateRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &task, nil
}

// TaskResult fetches the translations of a completed task.
func (c *Client) TaskResult(ctx context.Context, id string) ([]Translation, error) {
	var resp taskResultResponse
	if err := c.do(ctx, http.MethodGet, taskPath(id)+"/result", nil, &resp); err != nil {
		return nil, fmt.Errorf("task %s result: %w", id, err)
	}
	return resp.Translations, nil
}

func (c *Client) CancelTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, taskPath(id)+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel task %s: %w", id, err)
	}
	return nil
}

// WaitTask polls a task every interval until it reaches a terminal state.
// onProgress, when set, is called after every poll. A failed or cancelled
// task is returned together with a *TaskError.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration, onProgress func(*Task)) (*Task, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if onProgress != nil {
			onProgress(task)
		}

		switch task.Status {
		case TaskCompleted:
			return task, nil
		case TaskFailed, TaskCancelled:
			return task, &TaskError{TaskID: id, Status: task.Status, Reason: task.Error}
		}

		log.Debug().
			Str("task", id).
			Str("status", string(task.Status)).
			Int("completed", task.Completed).
			Int("total", task.Total).
			Msg("Task in progress")

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}
