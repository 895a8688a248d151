package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/internal/service"
)

// ScheduleSweepJob re-queues scheduled posts whose delivery task was lost,
// for example after the queue's redis was flushed.
type ScheduleSweepJob struct {
	pr           repository.PostRepository
	scheduler    service.TaskScheduler
	overdueAfter time.Duration
	now          func() time.Time
}

func NewScheduleSweepJob(pr repository.PostRepository, scheduler service.TaskScheduler, overdueAfter time.Duration) *ScheduleSweepJob {
	return &ScheduleSweepJob{
		pr:           pr,
		scheduler:    scheduler,
		overdueAfter: overdueAfter,
		now:          time.Now,
	}
}

// Sweep returns how many posts were queued again.
func (j *ScheduleSweepJob) Sweep() int {
	ctx := context.Background()

	posts, err := j.pr.ListOverdueScheduled(ctx, j.now().Add(-j.overdueAfter))
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	requeued := 0
	for _, post := range posts {
		if post.ScheduledAt == nil {
			continue
		}
		if err := j.scheduler.SchedulePost(ctx, post.ID, *post.ScheduledAt); err != nil {
			slog.Error("re-queue overdue post failed", "post", post.ID, "error", err)
			continue
		}
		requeued++
	}

	if requeued > 0 {
		slog.Info("re-queued overdue posts", "count", requeued)
	}
	return requeued
}
