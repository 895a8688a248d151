package transfer

type OpenSession struct {
	StoreID    string `json:"store_id" validate:"required,max=128"`
	EditPostID int64  `json:"edit_post_id" validate:"omitempty,gt=0"`
}

type LibraryMedia struct {
	URL  string `json:"url" validate:"required,url"`
	Kind string `json:"kind" validate:"required,oneof=PHOTO VIDEO"`
}

// Schedule takes either an RFC 3339 instant or a wall-clock time
// ("2006-01-02T15:04") together with an IANA time zone.
type Schedule struct {
	Enabled  bool   `json:"enabled"`
	At       string `json:"at" validate:"required_if=Enabled true"`
	TimeZone string `json:"time_zone" validate:"omitempty,timezone"`
}

// DraftPatch changes only the fields that are present.
type DraftPatch struct {
	Content      *string       `json:"content" validate:"omitempty,max=5000"`
	Platforms    []string      `json:"platforms" validate:"omitempty,dive,oneof=primary_listing photo_network microblog video_network"`
	LibraryMedia *LibraryMedia `json:"library_media"`
	Schedule     *Schedule     `json:"schedule"`
}

type Parameter struct {
	Value string `json:"value" validate:"max=500"`
}

type ParameterLock struct {
	Locked *bool `json:"locked" validate:"required"`
}

type Generate struct {
	Kind string `json:"kind" validate:"required,oneof=post hashtags"`
}

type Submit struct {
	Action                  string `json:"action" validate:"required,oneof=draft publish"`
	AcknowledgeDisconnected bool   `json:"acknowledge_disconnected"`
}
