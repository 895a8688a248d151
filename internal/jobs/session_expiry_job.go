package job

import (
	"log/slog"
)

// SessionExpirer drops idle sessions and reports how many went.
type SessionExpirer interface {
	Expire() int
}

// SessionExpiryJob drops composition sessions that went idle.
type SessionExpiryJob struct {
	sessions SessionExpirer
}

func NewSessionExpiryJob(sessions SessionExpirer) *SessionExpiryJob {
	return &SessionExpiryJob{sessions: sessions}
}

func (j *SessionExpiryJob) ExpireSessions() {
	if n := j.sessions.Expire(); n > 0 {
		slog.Info("expired idle composer sessions", "count", n)
	}
}
