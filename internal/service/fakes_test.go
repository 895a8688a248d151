package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/storepost/internal/models"
	"github.com/maheshrc27/storepost/internal/repository"
	"github.com/maheshrc27/storepost/pkg/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)

func encrypted(plain string) string {
	s, err := utils.Encrypt([]byte(plain), []byte(testSecret))
	if err != nil {
		panic(err)
	}
	return s
}

type fakePosts struct {
	mu       sync.Mutex
	nextID   int64
	posts    map[int64]*models.Post
	statuses []models.PostStatus
	removed  []int64
	overdue  []*models.Post
	before   time.Time
}

func newFakePosts() *fakePosts {
	return &fakePosts{nextID: 1, posts: map[int64]*models.Post{}}
}

func (f *fakePosts) Create(_ context.Context, _ *sql.Tx, post *models.Post) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	cp := *post
	cp.ID = id
	f.posts[id] = &cp
	return id, nil
}

func (f *fakePosts) Update(_ context.Context, _ *sql.Tx, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[post.ID]; !ok {
		return errors.New("no rows affected")
	}
	cp := *post
	f.posts[post.ID] = &cp
	return nil
}

func (f *fakePosts) GetByID(_ context.Context, id int64) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePosts) List(_ context.Context, userID int64, filter repository.PostFilter) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Post
	for _, p := range f.posts {
		if p.UserID != userID || (filter.StoreID != "" && p.StoreID != filter.StoreID) ||
			(filter.Status != "" && p.Status != filter.Status) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePosts) ListOverdueScheduled(_ context.Context, before time.Time) ([]*models.Post, error) {
	f.before = before
	return f.overdue, nil
}

func (f *fakePosts) UpdateStatus(_ context.Context, _ *sql.Tx, id int64, status models.PostStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	if p, ok := f.posts[id]; ok {
		p.Status = status
	}
	return nil
}

func (f *fakePosts) Remove(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
	f.removed = append(f.removed, id)
	return nil
}

type fakeTargets struct {
	mu      sync.Mutex
	targets map[int64][]*models.PostTarget
	saved   []models.PostTarget
}

func newFakeTargets() *fakeTargets {
	return &fakeTargets{targets: map[int64][]*models.PostTarget{}}
}

func (f *fakeTargets) Replace(_ context.Context, _ *sql.Tx, postID int64, targets []*models.PostTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]*models.PostTarget, len(targets))
	for i, t := range targets {
		t.PostID = postID
		c := *t
		cp[i] = &c
	}
	f.targets[postID] = cp
	return nil
}

func (f *fakeTargets) SaveResult(_ context.Context, _ *sql.Tx, t *models.PostTarget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *t)
	for _, stored := range f.targets[t.PostID] {
		if stored.Platform == t.Platform {
			*stored = *t
		}
	}
	return nil
}

func (f *fakeTargets) ListByPostID(_ context.Context, postID int64) ([]*models.PostTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PostTarget
	for _, t := range f.targets[postID] {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeTargets) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostTarget, error) {
	out := make(map[int64][]*models.PostTarget, len(postIDs))
	for _, id := range postIDs {
		out[id], _ = f.ListByPostID(ctx, id)
	}
	return out, nil
}

type fakeAccounts struct {
	accounts []*models.SocialAccount
	tokens   map[int64]string
}

func (f *fakeAccounts) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) GetByPlatform(_ context.Context, userID int64, platform models.Platform) (*models.SocialAccount, error) {
	for _, a := range f.accounts {
		if a.UserID == userID && a.Platform == platform {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) ListExpiring(_ context.Context, platform models.Platform, before time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range f.accounts {
		if a.Platform == platform && a.TokenExpiresAt.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) SetToken(_ context.Context, id int64, accessToken string, _ time.Time) error {
	if f.tokens == nil {
		f.tokens = map[int64]string{}
	}
	f.tokens[id] = accessToken
	return nil
}

func (f *fakeAccounts) RemoveByPlatform(_ context.Context, userID int64, platform models.Platform) (int64, error) {
	var kept []*models.SocialAccount
	var removed int64
	for _, a := range f.accounts {
		if a.UserID == userID && a.Platform == platform {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	f.accounts = kept
	return removed, nil
}

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*models.User, bool, error) {
	u, ok := f[id]
	return u, ok, nil
}

func (f fakeUsers) SetListing(_ context.Context, id int64, account, refreshToken string) error {
	if u, ok := f[id]; ok {
		u.ListingAccount = account
		u.ListingRefreshToken = refreshToken
	}
	return nil
}

type staticConnections map[models.Platform]bool

func (c staticConnections) Status(context.Context, int64) (map[models.Platform]bool, error) {
	return c, nil
}

type fakeScheduler struct {
	err       error
	scheduled map[int64]time.Time
}

func (f *fakeScheduler) SchedulePost(_ context.Context, postID int64, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	if f.scheduled == nil {
		f.scheduled = map[int64]time.Time{}
	}
	f.scheduled[postID] = at
	return nil
}

// stubPublisher succeeds unless err is set.
type stubPublisher struct {
	platform models.Platform
	err      error
	mu       sync.Mutex
	calls    int
}

func (p *stubPublisher) Platform() models.Platform { return p.platform }

func (p *stubPublisher) Publish(context.Context, *models.Post) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return "remote-" + string(p.platform), nil
}

func (p *stubPublisher) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func noTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}
