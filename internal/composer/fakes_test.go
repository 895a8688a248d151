package composer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
)

type fakeMediaStore struct {
	mu      sync.Mutex
	url     string
	err     error
	uploads []Upload
	library []LibraryItem
}

func (f *fakeMediaStore) Upload(_ context.Context, _ int64, _ string, u Upload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, u)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func (f *fakeMediaStore) List(context.Context, int64, string) ([]LibraryItem, error) {
	return f.library, nil
}

func (f *fakeMediaStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// fakePublisher records every call. When block is set, Create waits on it
// after signalling entered.
type fakePublisher struct {
	mu      sync.Mutex
	receipt Receipt
	err     error
	created []Submission
	updated map[int64]Submission
	posts   map[int64]*models.Post

	entered chan struct{}
	block   chan struct{}
}

func (f *fakePublisher) Create(_ context.Context, sub Submission) (Receipt, error) {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, sub)
	return f.receipt, f.err
}

func (f *fakePublisher) Update(_ context.Context, id int64, sub Submission) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[int64]Submission)
	}
	f.updated[id] = sub
	return f.receipt, f.err
}

func (f *fakePublisher) Load(_ context.Context, userID, id int64) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	return p, nil
}

func (f *fakePublisher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.updated)
}

type fakeConnections map[models.Platform]bool

func (f fakeConnections) Status(context.Context, int64) (map[models.Platform]bool, error) {
	out := make(map[models.Platform]bool, len(f))
	for p, ok := range f {
		out[p] = ok
	}
	return out, nil
}

type fakeGenerator struct {
	text string
	last GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	f.last = req
	if f.text == "" {
		return "", errors.New("generator offline")
	}
	return f.text, nil
}

type memLocks struct {
	mu    sync.Mutex
	saved map[string]StoredParameter
	saves int
}

func (m *memLocks) Load(context.Context, int64) (map[string]StoredParameter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]StoredParameter, len(m.saved))
	for k, v := range m.saved {
		out[k] = v
	}
	return out, nil
}

func (m *memLocks) Save(_ context.Context, _ int64, name string, p StoredParameter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]StoredParameter)
	}
	m.saved[name] = p
	m.saves++
	return nil
}

var testNow = time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)

type testEnv struct {
	media *fakeMediaStore
	pub   *fakePublisher
	conns fakeConnections
	gen   *fakeGenerator
	locks *memLocks
}

func newTestEnv() *testEnv {
	return &testEnv{
		media: &fakeMediaStore{url: "https://media.example.com/u/1/clip.mp4"},
		pub:   &fakePublisher{receipt: Receipt{ID: 7, Status: string(models.PostStatusPublished)}},
		conns: fakeConnections{
			models.PlatformPrimaryListing: true,
			models.PlatformPhotoNetwork:   true,
			models.PlatformMicroblog:      true,
			models.PlatformVideoNetwork:   true,
		},
		gen:   &fakeGenerator{},
		locks: &memLocks{},
	}
}

func (e *testEnv) deps() Deps {
	return Deps{
		Media:       e.media,
		Publisher:   e.pub,
		Connections: e.conns,
		Generator:   e.gen,
		Locks:       e.locks,
		Now:         func() time.Time { return testNow },
	}
}
