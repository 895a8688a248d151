package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

type recordingEnqueuer struct {
	err   error
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{}, nil
}

type stubPosts struct {
	repository.PostRepository
	post *models.Post
	err  error
}

func (s *stubPosts) GetByID(context.Context, int64) (*models.Post, error) {
	return s.post, s.err
}

func (s *stubPosts) UpdateStatus(context.Context, *sql.Tx, int64, models.PostStatus) error {
	return nil
}

type stubDeliverer struct {
	calls int
	err   error
}

func (d *stubDeliverer) Deliver(_ context.Context, post *models.Post) (models.PostStatus, []*models.PostTarget, error) {
	d.calls++
	return models.PostStatusPublished, nil, d.err
}

func TestSchedulePostEnqueuesWithTaskID(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	at := now.Add(45 * time.Minute)
	enq := &recordingEnqueuer{}
	c := &Client{client: enq, now: func() time.Time { return now }}

	if err := c.SchedulePost(context.Background(), 42, at); err != nil {
		t.Fatalf("SchedulePost returned error: %v", err)
	}
	if len(enq.tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(enq.tasks))
	}

	task := enq.tasks[0]
	if task.Type() != TaskTypeSchedulePost {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	var payload SchedulePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.PostID != 42 || payload.ScheduledAt != at.Unix() {
		t.Fatalf("unexpected payload %+v", payload)
	}

	var sawID, sawDelay bool
	for _, opt := range enq.opts[0] {
		switch opt.Type() {
		case asynq.TaskIDOpt:
			sawID = opt.Value() == taskID(42, at)
		case asynq.ProcessInOpt:
			sawDelay = opt.Value() == 45*time.Minute
		}
	}
	if !sawID || !sawDelay {
		t.Fatalf("missing task id or delay option: %v", enq.opts[0])
	}
}

func TestSchedulePostConflictIsNotAnError(t *testing.T) {
	t.Parallel()

	c := &Client{client: &recordingEnqueuer{err: asynq.ErrTaskIDConflict}, now: time.Now}
	if err := c.SchedulePost(context.Background(), 1, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("expected conflict to be ignored, got %v", err)
	}

	c = &Client{client: &recordingEnqueuer{err: errors.New("redis down")}, now: time.Now}
	if err := c.SchedulePost(context.Background(), 1, time.Now().Add(time.Hour)); err == nil {
		t.Fatalf("expected enqueue error")
	}
}

func TestPublishPostSkipsStaleTasks(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	moved := at.Add(time.Hour)

	tests := []struct {
		name string
		post *models.Post
	}{
		{"removed", nil},
		{"already published", &models.Post{ID: 1, Status: models.PostStatusPublished, ScheduledAt: &at}},
		{"rescheduled", &models.Post{ID: 1, Status: models.PostStatusScheduled, ScheduledAt: &moved}},
		{"now immediate", &models.Post{ID: 1, Status: models.PostStatusScheduled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &stubDeliverer{}
			q := NewQueue(&stubPosts{post: tt.post}, d)
			if err := q.PublishPost(context.Background(), SchedulePostPayload{PostID: 1, ScheduledAt: at.Unix()}); err != nil {
				t.Fatalf("PublishPost returned error: %v", err)
			}
			if d.calls != 0 {
				t.Fatalf("stale task was delivered")
			}
		})
	}
}

func TestPublishPostDelivers(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	d := &stubDeliverer{}
	q := NewQueue(&stubPosts{post: &models.Post{ID: 1, Status: models.PostStatusScheduled, ScheduledAt: &at}}, d)

	payload, _ := json.Marshal(SchedulePostPayload{PostID: 1, ScheduledAt: at.Unix()})
	if err := q.HandleSchedulePostTask(context.Background(), asynq.NewTask(TaskTypeSchedulePost, payload)); err != nil {
		t.Fatalf("HandleSchedulePostTask returned error: %v", err)
	}
	if d.calls != 1 {
		t.Fatalf("expected one delivery, got %d", d.calls)
	}
}

func TestHandleSchedulePostTaskBadPayload(t *testing.T) {
	t.Parallel()

	q := NewQueue(&stubPosts{}, &stubDeliverer{})
	err := q.HandleSchedulePostTask(context.Background(), asynq.NewTask(TaskTypeSchedulePost, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
