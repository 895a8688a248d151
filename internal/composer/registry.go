package composer

import (
	"context"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Registry keeps the open composition sessions of the process.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	return &Registry{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Open starts a session for a store. A non-zero editPostID loads that post
// for an in-place update.
func (r *Registry) Open(ctx context.Context, userID int64, storeID string, editPostID int64) (*Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	s, err := NewSession(ctx, id, userID, storeID, r.deps)
	if err != nil {
		return nil, err
	}
	if editPostID != 0 {
		if err := s.LoadPost(ctx, editPostID); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(userID int64, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close abandons the session and forgets it.
func (r *Registry) Close(userID int64, id string) error {
	s, err := r.Get(userID, id)
	if err != nil {
		return err
	}
	if err := s.Abandon(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// Expire abandons sessions idle for longer than the registry TTL and returns
// how many were removed. Sessions with a submission in flight are kept.
func (r *Registry) Expire() int {
	cutoff := r.deps.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.LastActive().After(cutoff) {
			continue
		}
		if err := s.Abandon(); err != nil {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
