package queue

import (
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/internal/service"
)

// Queue handles delayed delivery tasks for scheduled posts.
type Queue struct {
	pr       repository.PostRepository
	delivery service.Deliverer
}

func NewQueue(pr repository.PostRepository, delivery service.Deliverer) *Queue {
	return &Queue{
		pr:       pr,
		delivery: delivery,
	}
}

const TaskTypeSchedulePost = "schedule:post"

// SchedulePostPayload names the post and the publish time the task was
// queued for. A task whose time no longer matches the post is stale.
type SchedulePostPayload struct {
	PostID      int64 `json:"post_id"`
	ScheduledAt int64 `json:"scheduled_at"`
}
