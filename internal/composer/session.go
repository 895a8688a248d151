package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

type Deps struct {
	Media       MediaStore
	Publisher   Publisher
	Connections Connections
	Generator   Generator
	Locks       LockStore
	Now         func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type SubmitOptions struct {
	Intent                  Intent
	AcknowledgeDisconnected bool
}

// Session is one composition: a draft, its generation parameters and the
// submission guard. All methods are safe for concurrent use; draft mutations
// are refused while a submission is in flight.
type Session struct {
	ID      string
	UserID  int64
	StoreID string

	deps Deps

	mu          sync.Mutex
	state       State
	lastActive  time.Time
	editingID   int64
	content     string
	platforms   []models.Platform
	media       MediaSelection
	schedule    ScheduleRequest
	params      *parameterSet
	connections map[models.Platform]bool
	last        Outcome
}

// draft is the part of a session a submission works on.
type draft struct {
	editingID int64
	content   string
	platforms []models.Platform
	media     MediaSelection
	schedule  ScheduleRequest
}

func NewSession(ctx context.Context, id string, userID int64, storeID string, deps Deps) (*Session, error) {
	params, err := loadParameters(ctx, userID, deps.Locks)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         id,
		UserID:     userID,
		StoreID:    storeID,
		deps:       deps,
		params:     params,
		lastActive: deps.now(),
	}

	if err := s.RefreshConnections(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadPost starts editing an existing post. Resubmission updates it in place.
func (s *Session) LoadPost(ctx context.Context, postID int64) error {
	post, err := s.deps.Publisher.Load(ctx, s.UserID, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.Status == models.PostStatusPublished {
		return newValidationError("edit_post_id", "published posts cannot be edited")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}

	s.editingID = post.ID
	s.StoreID = post.StoreID
	s.content = post.Content
	s.platforms = append([]models.Platform(nil), post.Platforms...)
	s.media = MediaSelection{}
	if post.MediaURL != "" {
		s.media.Carried = &MediaRef{URL: post.MediaURL, Kind: post.MediaKind}
	}
	s.schedule = ScheduleRequest{}
	if post.ScheduledAt != nil {
		at := *post.ScheduledAt
		s.schedule = ScheduleRequest{Enabled: true, At: &at}
	}
	return nil
}

func (s *Session) RefreshConnections(ctx context.Context) error {
	status, err := s.deps.Connections.Status(ctx, s.UserID)
	if err != nil {
		return fmt.Errorf("refresh platform connections: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections = status
	return nil
}

func (s *Session) SetContent(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.content = content
	return nil
}

func (s *Session) SetPlatforms(platforms []models.Platform) error {
	seen := make(map[models.Platform]bool, len(platforms))
	out := make([]models.Platform, 0, len(platforms))
	for _, p := range platforms {
		if !models.IsValidPlatform(string(p)) {
			return newValidationError("platforms", fmt.Sprintf("unknown platform %q", p))
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.platforms = out
	return nil
}

// AttachUpload sets a file to store on submission. It wins over any library
// or carried media.
func (s *Session) AttachUpload(u Upload) error {
	if len(u.Data) == 0 {
		return newValidationError("media", "uploaded file is empty")
	}
	if err := CheckUpload(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.media.Upload = &u
	return nil
}

func (s *Session) SelectLibraryMedia(ref *MediaRef) error {
	if ref != nil && ref.Kind != models.MediaKindPhoto && ref.Kind != models.MediaKindVideo {
		return newValidationError("media", fmt.Sprintf("unknown media kind %q", ref.Kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.media.Library = ref
	return nil
}

// ClearMedia drops every media source, including media carried from an edit.
func (s *Session) ClearMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.media = MediaSelection{}
	return nil
}

func (s *Session) SetSchedule(req ScheduleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	s.schedule = req
	return nil
}

// SetParameter updates a generation parameter. Locked parameters are refused
// with ErrParameterLocked until they are unlocked.
func (s *Session) SetParameter(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	return s.params.set(name, value)
}

func (s *Session) ToggleLock(ctx context.Context, name string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return err
	}
	return s.params.toggle(ctx, name, locked)
}

// Generate asks the generation backend for text using the current parameters.
// Post text replaces the content; hashtags are appended on a new line.
func (s *Session) Generate(ctx context.Context, kind GenerateKind) (string, error) {
	if kind != GeneratePost && kind != GenerateHashtags {
		return "", newValidationError("kind", fmt.Sprintf("unknown generation kind %q", kind))
	}

	s.mu.Lock()
	if err := s.touchLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	req := GenerateRequest{
		Kind:       kind,
		StoreID:    s.StoreID,
		Content:    s.content,
		Parameters: s.params.plainValues(),
	}
	s.mu.Unlock()

	text, err := s.deps.Generator.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", kind, err)
	}
	text = strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touchLocked(); err != nil {
		return "", err
	}
	if kind == GenerateHashtags && s.content != "" {
		s.content = s.content + "\n" + text
	} else {
		s.content = text
	}
	return s.content, nil
}

// Submit validates the draft, stores any upload, and makes exactly one call to
// the publishing backend. Only one submission can be in flight per session.
func (s *Session) Submit(ctx context.Context, opts SubmitOptions) (Outcome, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	d := s.draftLocked()
	conns := make(map[models.Platform]bool, len(s.connections))
	for p, ok := range s.connections {
		conns[p] = ok
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	outcome, media, err := s.submit(ctx, d, conns, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.deps.now()
	if err != nil {
		s.state = StateIdle
		return nil, err
	}

	s.state = StateDone
	s.last = outcome
	switch outcome.(type) {
	case Partial, Failed:
		// the post exists; further submissions edit it
		s.editingID = outcome.PostID()
		s.media = MediaSelection{}
		if media != nil {
			s.media.Carried = media
		}
	default:
		s.clearTransientLocked()
	}
	return outcome, nil
}

func (s *Session) submit(ctx context.Context, d draft, conns map[models.Platform]bool, opts SubmitOptions) (Outcome, *MediaRef, error) {
	scheduledAt, err := validate(d, conns, opts, s.deps.now())
	if err != nil {
		return nil, nil, err
	}

	media, err := d.media.Resolve(ctx, s.deps.Media, s.UserID, s.StoreID)
	if err != nil {
		return nil, nil, err
	}

	sub := Submission{
		UserID:      s.UserID,
		StoreID:     s.StoreID,
		Content:     strings.TrimSpace(d.content),
		Media:       media,
		Platforms:   d.platforms,
		Intent:      opts.Intent,
		ScheduledAt: scheduledAt,
	}

	var receipt Receipt
	if d.editingID != 0 {
		receipt, err = s.deps.Publisher.Update(ctx, d.editingID, sub)
	} else {
		receipt, err = s.deps.Publisher.Create(ctx, sub)
	}
	if err != nil {
		return nil, nil, classifyBackendError(err)
	}

	outcome, err := DecodeReceipt(receipt)
	if err != nil {
		return nil, nil, &UnknownOutcomeError{Err: err}
	}
	return outcome, media, nil
}

// validate runs the pre-submission checks in order and stops at the first
// failure. It returns the normalized publish time, if any.
func validate(d draft, conns map[models.Platform]bool, opts SubmitOptions, now time.Time) (*time.Time, error) {
	if opts.Intent != IntentDraft && opts.Intent != IntentPublish {
		return nil, newValidationError("action", fmt.Sprintf("unknown action %q", opts.Intent))
	}

	if strings.TrimSpace(d.content) == "" {
		return nil, newValidationError("content", "post content is empty")
	}

	if opts.Intent == IntentDraft {
		if d.schedule.Enabled && d.schedule.At != nil {
			at := Quantize(*d.schedule.At)
			return &at, nil
		}
		return nil, nil
	}

	if len(d.platforms) == 0 {
		return nil, newValidationError("platforms", "select at least one platform")
	}

	for _, p := range d.platforms {
		if !p.RequiresVideo() {
			continue
		}
		if kind, ok := d.media.Kind(); !ok || kind != models.MediaKindVideo {
			return nil, newValidationError("media", fmt.Sprintf("%s requires a video", p))
		}
	}

	sched, err := Normalize(d.schedule, now)
	if err != nil {
		return nil, err
	}

	var missing []models.Platform
	for _, p := range d.platforms {
		if !conns[p] {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 && !opts.AcknowledgeDisconnected {
		return nil, &ConnectionWarning{Platforms: missing}
	}

	if sched.Immediate {
		return nil, nil
	}
	return &sched.At, nil
}

func classifyBackendError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	if errors.Is(err, ErrPostNotFound) {
		return err
	}
	return &UnknownOutcomeError{Err: err}
}

// Abandon throws the working draft away together with every unlocked
// parameter. A session with a submission in flight is left alone.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	s.clearTransientLocked()
	s.platforms = nil
	s.params.resetUnlocked()
	s.state = StateIdle
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) draftLocked() draft {
	d := draft{
		editingID: s.editingID,
		content:   s.content,
		platforms: append([]models.Platform(nil), s.platforms...),
		media:     s.media,
		schedule:  s.schedule,
	}
	return d
}

// touchLocked records activity and refuses mutations during a submission.
// A finished submission goes back to idle on the next edit.
func (s *Session) touchLocked() error {
	if s.state == StateSubmitting {
		return ErrSubmissionInFlight
	}
	s.state = StateIdle
	s.lastActive = s.deps.now()
	return nil
}

func (s *Session) clearTransientLocked() {
	s.editingID = 0
	s.content = ""
	s.media = MediaSelection{}
	s.schedule = ScheduleRequest{}
}
