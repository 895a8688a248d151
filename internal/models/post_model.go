package models

import "time"

type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusScheduled PostStatus = "SCHEDULED"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusPartial   PostStatus = "PARTIAL"
	PostStatusFailed    PostStatus = "FAILED"
)

type Platform string

const (
	PlatformPrimaryListing Platform = "primary_listing"
	PlatformPhotoNetwork   Platform = "photo_network"
	PlatformMicroblog      Platform = "microblog"
	PlatformVideoNetwork   Platform = "video_network"
)

// Platforms lists every publishing target in display order.
func Platforms() []Platform {
	return []Platform{PlatformPrimaryListing, PlatformPhotoNetwork, PlatformMicroblog, PlatformVideoNetwork}
}

func IsValidPlatform(p string) bool {
	for _, valid := range Platforms() {
		if string(valid) == p {
			return true
		}
	}
	return false
}

// RequiresVideo reports whether the platform only accepts video posts.
func (p Platform) RequiresVideo() bool {
	return p == PlatformVideoNetwork
}

type MediaKind string

const (
	MediaKindPhoto MediaKind = "PHOTO"
	MediaKindVideo MediaKind = "VIDEO"
)

type Post struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	StoreID     string     `db:"store_id" json:"store_id"`
	Content     string     `db:"content" json:"content"`
	MediaURL    string     `db:"media_url" json:"media_url,omitempty"`
	MediaKind   MediaKind  `db:"media_kind" json:"media_kind,omitempty"`
	Platforms   []Platform `db:"-" json:"platforms"`
	Status      PostStatus `db:"status" json:"status"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Targets []*PostTarget `db:"-" json:"targets,omitempty"`
}

type MediaAsset struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	StoreID      string    `db:"store_id" json:"store_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FileType     string    `db:"file_type" json:"file_type"`
	Kind         MediaKind `db:"kind" json:"kind"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	FileURL      string    `db:"file_url" json:"file_url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
