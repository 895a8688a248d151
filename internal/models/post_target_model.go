package models

import "time"

type TargetStatus string

const (
	TargetStatusPending   TargetStatus = "pending"
	TargetStatusDelivered TargetStatus = "delivered"
	TargetStatusFailed    TargetStatus = "failed"
)

// PostTarget records the delivery of one post to one platform.
type PostTarget struct {
	PostID       int64        `db:"post_id" json:"-"`
	Platform     Platform     `db:"platform" json:"platform"`
	Status       TargetStatus `db:"status" json:"status"`
	RemoteID     string       `db:"remote_id" json:"remote_id,omitempty"`
	ErrorMessage string       `db:"error_message" json:"error_message,omitempty"`
	AttemptedAt  *time.Time   `db:"attempted_at" json:"attempted_at,omitempty"`
}

// AggregateStatus folds per-platform results into the post lifecycle status.
// Targets still pending are ignored, so callers pass only settled targets.
func AggregateStatus(targets []*PostTarget) PostStatus {
	delivered, failed := 0, 0
	for _, t := range targets {
		switch t.Status {
		case TargetStatusDelivered:
			delivered++
		case TargetStatusFailed:
			failed++
		}
	}

	switch {
	case delivered > 0 && failed == 0:
		return PostStatusPublished
	case delivered > 0:
		return PostStatusPartial
	default:
		return PostStatusFailed
	}
}
