package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/storepost/internal/composer"
	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

// scheduleSlack tolerates clock drift between the composer and this service.
const scheduleSlack = time.Minute

// TaskScheduler queues the delivery of a scheduled post.
type TaskScheduler interface {
	SchedulePost(ctx context.Context, postID int64, at time.Time) error
}

type PostService interface {
	composer.Publisher
	List(ctx context.Context, userID int64, filter repository.PostFilter) ([]*models.Post, error)
	PostInfo(ctx context.Context, userID, postID int64) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr        repository.PostRepository
	tr        repository.PostTargetRepository
	conns     composer.Connections
	delivery  Deliverer
	scheduler TaskScheduler
	runInTx   func(ctx context.Context, fn func(tx *sql.Tx) error) error
	now       func() time.Time
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	tr repository.PostTargetRepository,
	conns composer.Connections,
	delivery Deliverer,
	scheduler TaskScheduler) PostService {
	return &postService{
		pr:        pr,
		tr:        tr,
		conns:     conns,
		delivery:  delivery,
		scheduler: scheduler,
		runInTx:   txRunner(db),
		now:       time.Now,
	}
}

func txRunner(db *sql.DB) func(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return func(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
		tx, err := db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		defer func() {
			if p := recover(); p != nil {
				tx.Rollback()
				panic(p)
			} else if err != nil {
				tx.Rollback()
			}
		}()

		if err = fn(tx); err != nil {
			return err
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
}

func invalid(field, message string) error {
	return &composer.ValidationError{Field: field, Message: message}
}

// validateSubmission repeats the composer's checks so that any client of the
// API gets the same rules.
func validateSubmission(sub composer.Submission, now time.Time) error {
	if strings.TrimSpace(sub.Content) == "" {
		return invalid("content", "post content is empty")
	}
	if strings.TrimSpace(sub.StoreID) == "" {
		return invalid("store_id", "store is required")
	}
	if sub.Intent != composer.IntentDraft && sub.Intent != composer.IntentPublish {
		return invalid("action", fmt.Sprintf("unknown action %q", sub.Intent))
	}
	for _, p := range sub.Platforms {
		if !models.IsValidPlatform(string(p)) {
			return invalid("platforms", fmt.Sprintf("unknown platform %q", p))
		}
	}
	if sub.Intent == composer.IntentDraft {
		return nil
	}

	if len(sub.Platforms) == 0 {
		return invalid("platforms", "select at least one platform")
	}
	for _, p := range sub.Platforms {
		if p.RequiresVideo() && (sub.Media == nil || sub.Media.Kind != models.MediaKindVideo) {
			return invalid("media", fmt.Sprintf("%s requires a video", p))
		}
	}
	if sub.ScheduledAt != nil && sub.ScheduledAt.Before(now.Add(-scheduleSlack)) {
		return invalid("scheduled_at", "publish time is in the past")
	}
	return nil
}

func newPost(sub composer.Submission) *models.Post {
	post := &models.Post{
		UserID:      sub.UserID,
		StoreID:     sub.StoreID,
		Content:     strings.TrimSpace(sub.Content),
		Platforms:   sub.Platforms,
		ScheduledAt: sub.ScheduledAt,
	}
	if sub.Media != nil {
		post.MediaURL = sub.Media.URL
		post.MediaKind = sub.Media.Kind
	}
	return post
}

// plan builds the target rows and the initial status of a post. Targets in
// keep were delivered earlier and are carried over instead of sent again.
func (s *postService) plan(ctx context.Context, post *models.Post, intent composer.Intent, keep map[models.Platform]*models.PostTarget) ([]*models.PostTarget, error) {
	now := s.now()
	targets := make([]*models.PostTarget, 0, len(post.Platforms))

	var conns map[models.Platform]bool
	if intent == composer.IntentPublish {
		var err error
		if conns, err = s.conns.Status(ctx, post.UserID); err != nil {
			return nil, fmt.Errorf("check connections: %w", err)
		}
	}

	pending, delivered := 0, 0
	for _, p := range post.Platforms {
		if prev, ok := keep[p]; ok {
			targets = append(targets, prev)
			delivered++
			continue
		}

		t := &models.PostTarget{Platform: p, Status: models.TargetStatusPending}
		if intent == composer.IntentPublish && !conns[p] {
			t.Status = models.TargetStatusFailed
			t.ErrorMessage = ErrNotConnected.Error()
			t.AttemptedAt = &now
		} else {
			pending++
		}
		targets = append(targets, t)
	}

	switch {
	case intent == composer.IntentDraft:
		post.Status = models.PostStatusDraft
	case pending == 0:
		post.Status = models.AggregateStatus(targets)
	case post.ScheduledAt != nil:
		post.Status = models.PostStatusScheduled
	case delivered > 0:
		// an immediate post is stored as if delivery never happens until
		// Deliver writes the settled status
		post.Status = models.PostStatusPartial
	default:
		post.Status = models.PostStatusFailed
	}
	return targets, nil
}

func hasPending(targets []*models.PostTarget) bool {
	for _, t := range targets {
		if t.Status == models.TargetStatusPending {
			return true
		}
	}
	return false
}

func (s *postService) Create(ctx context.Context, sub composer.Submission) (composer.Receipt, error) {
	if err := validateSubmission(sub, s.now()); err != nil {
		return composer.Receipt{}, err
	}

	post := newPost(sub)
	targets, err := s.plan(ctx, post, sub.Intent, nil)
	if err != nil {
		return composer.Receipt{}, err
	}

	err = s.runInTx(ctx, func(tx *sql.Tx) error {
		id, err := s.pr.Create(ctx, tx, post)
		if err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}
		post.ID = id
		return s.tr.Replace(ctx, tx, id, targets)
	})
	if err != nil {
		return composer.Receipt{}, err
	}

	return s.dispatch(ctx, post, targets)
}

func (s *postService) Update(ctx context.Context, id int64, sub composer.Submission) (composer.Receipt, error) {
	existing, err := s.Load(ctx, sub.UserID, id)
	if err != nil {
		return composer.Receipt{}, err
	}
	if existing.Status == models.PostStatusPublished {
		return composer.Receipt{}, invalid("post", "published posts cannot be edited")
	}
	if err := validateSubmission(sub, s.now()); err != nil {
		return composer.Receipt{}, err
	}

	keep := make(map[models.Platform]*models.PostTarget)
	for _, t := range existing.Targets {
		if t.Status == models.TargetStatusDelivered {
			keep[t.Platform] = t
		}
	}

	post := newPost(sub)
	post.ID = id
	targets, err := s.plan(ctx, post, sub.Intent, keep)
	if err != nil {
		return composer.Receipt{}, err
	}

	err = s.runInTx(ctx, func(tx *sql.Tx) error {
		if err := s.pr.Update(ctx, tx, post); err != nil {
			return fmt.Errorf("error updating post: %w", err)
		}
		return s.tr.Replace(ctx, tx, id, targets)
	})
	if err != nil {
		return composer.Receipt{}, err
	}

	return s.dispatch(ctx, post, targets)
}

// dispatch delivers an immediate post now or queues a scheduled one, and
// reports the resulting status.
func (s *postService) dispatch(ctx context.Context, post *models.Post, targets []*models.PostTarget) (composer.Receipt, error) {
	receipt := composer.Receipt{
		ID:          post.ID,
		Status:      string(post.Status),
		ScheduledAt: post.ScheduledAt,
		Targets:     targets,
	}
	if post.Status == models.PostStatusDraft || !hasPending(targets) {
		return receipt, nil
	}

	if post.ScheduledAt != nil {
		// the sweeper re-queues overdue posts, so a queue failure is not fatal
		if err := s.scheduler.SchedulePost(ctx, post.ID, *post.ScheduledAt); err != nil {
			slog.Error("enqueue scheduled post failed", "post", post.ID, "error", err)
		}
		return receipt, nil
	}

	status, delivered, err := s.delivery.Deliver(ctx, post)
	if err != nil {
		s.settleFailed(ctx, post, targets, err)
		return composer.Receipt{}, err
	}
	receipt.Status = string(status)
	receipt.Targets = delivered
	return receipt, nil
}

// settleFailed marks every target still pending after a failed delivery as
// failed and stores the resulting status. Errors are only logged.
func (s *postService) settleFailed(ctx context.Context, post *models.Post, planned []*models.PostTarget, cause error) {
	targets, err := s.tr.ListByPostID(ctx, post.ID)
	if err != nil || len(targets) == 0 {
		targets = planned
	}

	now := s.now()
	for _, t := range targets {
		if t.Status != models.TargetStatusPending {
			continue
		}
		t.Status = models.TargetStatusFailed
		t.ErrorMessage = cause.Error()
		t.AttemptedAt = &now
		t.PostID = post.ID
		if err := s.tr.SaveResult(ctx, nil, t); err != nil {
			slog.Error("saving failed target", "post", post.ID, "platform", t.Platform, "error", err)
		}
	}

	post.Status = models.AggregateStatus(targets)
	if err := s.pr.UpdateStatus(ctx, nil, post.ID, post.Status); err != nil {
		slog.Error("saving post status after failed delivery", "post", post.ID, "error", err)
	}
}

// Load returns the user's post with its targets, or composer.ErrPostNotFound.
func (s *postService) Load(ctx context.Context, userID, id int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, composer.ErrPostNotFound
	}

	post.Targets, err = s.tr.ListByPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	return post, nil
}

func (s *postService) PostInfo(ctx context.Context, userID, postID int64) (*models.Post, error) {
	if postID == 0 {
		return nil, invalid("post_id", "post id is not valid")
	}
	return s.Load(ctx, userID, postID)
}

func (s *postService) List(ctx context.Context, userID int64, filter repository.PostFilter) ([]*models.Post, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", filter.Status))
	}

	posts, err := s.pr.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	byPost, err := s.tr.ListByPostIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	for _, p := range posts {
		p.Targets = byPost[p.ID]
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	if _, err := s.Load(ctx, userID, postID); err != nil {
		return err
	}
	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}

func validStatus(s models.PostStatus) bool {
	switch s {
	case models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusPublished,
		models.PostStatusPartial, models.PostStatusFailed:
		return true
	}
	return false
}
