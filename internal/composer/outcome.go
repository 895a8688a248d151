package composer

import (
	"fmt"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

// Outcome is the decoded backend answer to a submission. It is one of
// Drafted, Published, Scheduled, Partial or Failed.
type Outcome interface {
	Name() string
	PostID() int64
	outcome()
}

type Drafted struct {
	ID          int64
	ScheduledAt *time.Time
}

type Published struct {
	ID      int64
	Targets []*models.PostTarget
}

type Scheduled struct {
	ID      int64
	At      time.Time
	Targets []*models.PostTarget
}

// Partial is a post delivered to some but not all of its platforms. It stays
// editable and is never retried automatically.
type Partial struct {
	ID        int64
	Delivered []*models.PostTarget
	Failed    []*models.PostTarget
}

type Failed struct {
	ID      int64
	Targets []*models.PostTarget
}

func (Drafted) Name() string   { return "draft" }
func (Published) Name() string { return "published" }
func (Scheduled) Name() string { return "scheduled" }
func (Partial) Name() string   { return "partial" }
func (Failed) Name() string    { return "failed" }

func (o Drafted) PostID() int64   { return o.ID }
func (o Published) PostID() int64 { return o.ID }
func (o Scheduled) PostID() int64 { return o.ID }
func (o Partial) PostID() int64   { return o.ID }
func (o Failed) PostID() int64    { return o.ID }

func (Drafted) outcome()   {}
func (Published) outcome() {}
func (Scheduled) outcome() {}
func (Partial) outcome()   {}
func (Failed) outcome()    {}

// DecodeReceipt maps the backend status string onto an Outcome. Statuses this
// package does not know are an error rather than a guess.
func DecodeReceipt(r Receipt) (Outcome, error) {
	switch models.PostStatus(r.Status) {
	case models.PostStatusDraft:
		return Drafted{ID: r.ID, ScheduledAt: r.ScheduledAt}, nil
	case models.PostStatusPublished:
		return Published{ID: r.ID, Targets: r.Targets}, nil
	case models.PostStatusScheduled:
		if r.ScheduledAt == nil {
			return nil, fmt.Errorf("post %d reported scheduled without a publish time", r.ID)
		}
		return Scheduled{ID: r.ID, At: *r.ScheduledAt, Targets: r.Targets}, nil
	case models.PostStatusPartial:
		p := Partial{ID: r.ID}
		for _, t := range r.Targets {
			switch t.Status {
			case models.TargetStatusDelivered:
				p.Delivered = append(p.Delivered, t)
			case models.TargetStatusFailed:
				p.Failed = append(p.Failed, t)
			}
		}
		return p, nil
	case models.PostStatusFailed:
		return Failed{ID: r.ID, Targets: r.Targets}, nil
	default:
		return nil, fmt.Errorf("unrecognized post status %q", r.Status)
	}
}
