package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
)

const deliveryConcurrency = 4

// Deliverer sends a stored post to its pending targets.
type Deliverer interface {
	Deliver(ctx context.Context, post *models.Post) (models.PostStatus, []*models.PostTarget, error)
}

type DeliveryService struct {
	pr          repository.PostRepository
	tr          repository.PostTargetRepository
	publishers  map[models.Platform]PlatformPublisher
	concurrency int
	now         func() time.Time
}

func NewDeliveryService(pr repository.PostRepository, tr repository.PostTargetRepository, publishers ...PlatformPublisher) *DeliveryService {
	byPlatform := make(map[models.Platform]PlatformPublisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}
	return &DeliveryService{
		pr:          pr,
		tr:          tr,
		publishers:  byPlatform,
		concurrency: deliveryConcurrency,
		now:         time.Now,
	}
}

// Deliver publishes the post to every pending target, records each result and
// writes the aggregate status. Targets settled earlier count towards the
// aggregate but are not sent again.
func (s *DeliveryService) Deliver(ctx context.Context, post *models.Post) (models.PostStatus, []*models.PostTarget, error) {
	targets, err := s.tr.ListByPostID(ctx, post.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load targets: %w", err)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.concurrency)

	for _, t := range targets {
		if t.Status != models.TargetStatusPending {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(t *models.PostTarget) {
			defer wg.Done()
			defer func() { <-semaphore }()
			s.deliverOne(ctx, post, t)
		}(t)
	}
	wg.Wait()

	status := models.AggregateStatus(targets)
	if err := s.pr.UpdateStatus(ctx, nil, post.ID, status); err != nil {
		return "", nil, fmt.Errorf("save post status: %w", err)
	}

	post.Status = status
	post.Targets = targets
	return status, targets, nil
}

func (s *DeliveryService) deliverOne(ctx context.Context, post *models.Post, t *models.PostTarget) {
	var remoteID string
	var err error

	if pub, ok := s.publishers[t.Platform]; ok {
		remoteID, err = pub.Publish(ctx, post)
	} else {
		err = errors.New("no publisher configured")
	}

	at := s.now()
	t.AttemptedAt = &at
	if err != nil {
		t.Status = models.TargetStatusFailed
		t.ErrorMessage = err.Error()
		slog.Info("delivery failed", "post", post.ID, "platform", t.Platform, "error", err)
	} else {
		t.Status = models.TargetStatusDelivered
		t.RemoteID = remoteID
		t.ErrorMessage = ""
	}

	if err := s.tr.SaveResult(ctx, nil, t); err != nil {
		slog.Error("saving delivery result failed", "post", post.ID, "platform", t.Platform, "error", err)
	}
}
