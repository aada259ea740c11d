package workstation

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"etiket/internal/cache"
	"etiket/internal/history"
)

// Manager keeps one Session per browser. Idle sessions expire after the TTL;
// all sessions share the history repository.
type Manager struct {
	sessions *cache.LRUCache[*Session]
	history  history.Repository
	opts     Options
	logger   *slog.Logger
}

func NewManager(repo history.Repository, maxSessions int, ttl time.Duration, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: cache.NewLRUCache[*Session](maxSessions, ttl),
		history:  repo,
		opts:     opts,
		logger:   logger,
	}
}

// Acquire returns the session for id, or a new one when id is unknown or
// expired. created reports whether a new session was started.
func (m *Manager) Acquire(id string) (s *Session, created bool) {
	if id != "" {
		if s, ok := m.sessions.Get(id); ok {
			// Refresh the expiry on use.
			m.sessions.Set(id, s)
			return s, false
		}
	}
	s = NewSession(uuid.NewString(), m.history, m.opts)
	m.sessions.Set(s.ID(), s)
	m.logger.Debug("Workstation session started", "session_id", s.ID())
	return s, true
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Sessions exposes the underlying cache for expiry sweeps.
func (m *Manager) Sessions() cache.Cleaner {
	return m.sessions
}

func (m *Manager) Len() int {
	return m.sessions.Size()
}
