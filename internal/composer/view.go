package composer

import (
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type MediaView struct {
	Source   string           `json:"source"`
	URL      string           `json:"url,omitempty"`
	Kind     models.MediaKind `json:"kind"`
	FileName string           `json:"file_name,omitempty"`
}

type ScheduleView struct {
	Enabled    bool       `json:"enabled"`
	At         *time.Time `json:"at,omitempty"`
	Normalized *time.Time `json:"normalized,omitempty"`
}

// View is a read-only copy of a session for rendering.
type View struct {
	ID            string                   `json:"id"`
	StoreID       string                   `json:"store_id"`
	State         string                   `json:"state"`
	EditingPostID int64                    `json:"editing_post_id,omitempty"`
	Content       string                   `json:"content"`
	Platforms     []models.Platform        `json:"platforms"`
	Media         *MediaView               `json:"media,omitempty"`
	Schedule      ScheduleView             `json:"schedule"`
	Parameters    map[string]Parameter     `json:"parameters"`
	Connections   map[models.Platform]bool `json:"connections"`
	LastOutcome   string                   `json:"last_outcome,omitempty"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:            s.ID,
		StoreID:       s.StoreID,
		State:         s.state.String(),
		EditingPostID: s.editingID,
		Content:       s.content,
		Platforms:     append([]models.Platform{}, s.platforms...),
		Schedule:      ScheduleView{Enabled: s.schedule.Enabled, At: s.schedule.At},
		Parameters:    s.params.snapshot(),
		Connections:   make(map[models.Platform]bool, len(s.connections)),
	}
	for p, ok := range s.connections {
		v.Connections[p] = ok
	}

	if s.schedule.Enabled && s.schedule.At != nil {
		q := Quantize(*s.schedule.At)
		v.Schedule.Normalized = &q
	}

	switch s.media.Source() {
	case "upload":
		// the file has no durable URL until submission
		v.Media = &MediaView{Source: "upload", Kind: KindOf(*s.media.Upload), FileName: s.media.Upload.FileName}
	case "library":
		v.Media = &MediaView{Source: "library", URL: s.media.Library.URL, Kind: s.media.Library.Kind}
	case "carried":
		v.Media = &MediaView{Source: "carried", URL: s.media.Carried.URL, Kind: s.media.Carried.Kind}
	}

	if s.last != nil {
		v.LastOutcome = s.last.Name()
	}
	return v
}
