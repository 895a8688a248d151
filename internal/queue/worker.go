package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/storepost/internal/models"
)

func (j *Queue) HandleSchedulePostTask(ctx context.Context, task *asynq.Task) error {
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	return j.PublishPost(ctx, payload)
}

// PublishPost delivers the post named by the payload unless the task is
// stale: the post was removed, is no longer scheduled, or was moved to
// another time.
func (j *Queue) PublishPost(ctx context.Context, payload SchedulePostPayload) error {
	post, err := j.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}

	switch {
	case post == nil:
		slog.Info("skipping task for removed post", "post", payload.PostID)
		return nil
	case post.Status != models.PostStatusScheduled:
		slog.Info("skipping task for settled post", "post", post.ID, "status", post.Status)
		return nil
	case post.ScheduledAt == nil || post.ScheduledAt.Unix() != payload.ScheduledAt:
		slog.Info("skipping stale task", "post", post.ID)
		return nil
	}

	status, _, err := j.delivery.Deliver(ctx, post)
	if err != nil {
		return fmt.Errorf("deliver post %d: %w", post.ID, err)
	}

	slog.Info("post delivered", "post", post.ID, "status", status)
	return nil
}
