// Package composer implements the post composition workflow: lock-aware
// generation parameters, single media resolution, schedule quantization and
// the publish orchestration that reconciles a post's lifecycle status.
//
// The package talks to storage, publishing, connection and generation
// backends only through the interfaces declared here.
package composer

import (
	"context"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type MediaRef struct {
	URL  string           `json:"url"`
	Kind models.MediaKind `json:"kind"`
}

// Upload is a file handed to the session that has not been stored yet.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type LibraryItem struct {
	URL          string           `json:"url"`
	Kind         models.MediaKind `json:"kind"`
	ThumbnailURL string           `json:"thumbnail_url,omitempty"`
	FileName     string           `json:"file_name"`
}

type MediaStore interface {
	Upload(ctx context.Context, userID int64, storeID string, upload Upload) (string, error)
	List(ctx context.Context, userID int64, storeID string) ([]LibraryItem, error)
}

type Intent string

const (
	IntentDraft   Intent = "draft"
	IntentPublish Intent = "publish"
)

// Submission is the composed post as sent to the publishing backend.
type Submission struct {
	UserID      int64
	StoreID     string
	Content     string
	Media       *MediaRef
	Platforms   []models.Platform
	Intent      Intent
	ScheduledAt *time.Time
}

// Receipt is the publishing backend's answer. Status is authoritative and may
// differ from what the submission asked for.
type Receipt struct {
	ID          int64
	Status      string
	ScheduledAt *time.Time
	Targets     []*models.PostTarget
}

type Publisher interface {
	Create(ctx context.Context, sub Submission) (Receipt, error)
	Update(ctx context.Context, id int64, sub Submission) (Receipt, error)
	Load(ctx context.Context, userID, id int64) (*models.Post, error)
}

type Connections interface {
	Status(ctx context.Context, userID int64) (map[models.Platform]bool, error)
}

type GenerateKind string

const (
	GeneratePost     GenerateKind = "post"
	GenerateHashtags GenerateKind = "hashtags"
)

type GenerateRequest struct {
	Kind       GenerateKind
	StoreID    string
	Content    string
	Parameters map[string]string
}

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StoredParameter is the durable snapshot of one generation parameter.
type StoredParameter struct {
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type LockStore interface {
	Load(ctx context.Context, userID int64) (map[string]StoredParameter, error)
	Save(ctx context.Context, userID int64, name string, p StoredParameter) error
}
