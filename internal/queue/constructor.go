package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const maxDeliveryRetries = 3

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client queues scheduled posts on asynq.
type Client struct {
	client enqueuer
	now    func() time.Time
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client, now: time.Now}
}

func taskID(postID int64, at time.Time) string {
	return fmt.Sprintf("post:%d:%d", postID, at.Unix())
}

// SchedulePost queues delivery of the post at the given time. Queuing the
// same post and time twice is a no-op.
func (c *Client) SchedulePost(ctx context.Context, postID int64, at time.Time) error {
	payload := SchedulePostPayload{PostID: postID, ScheduledAt: at.Unix()}
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	delay := at.Sub(c.now())
	if delay < 0 {
		delay = 0
	}

	task := asynq.NewTask(TaskTypeSchedulePost, taskPayload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(delay),
		asynq.TaskID(taskID(postID, at)),
		asynq.MaxRetry(maxDeliveryRetries),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue post %d: %w", postID, err)
	}

	slog.Info("task scheduled", "post", postID, "at", at)
	return nil
}
