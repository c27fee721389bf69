package study

import (
	"context"
	"sync"
	"time"

	"github.com/studyup/studyup/internal/logger"
	"github.com/studyup/studyup/internal/models"
)

// Manager holds the live study sessions. Sessions idle for longer than ttl
// are dropped by Sweep.
type Manager struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session *Session
	seen    time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{ttl: ttl, sessions: make(map[string]*entry)}
}

// Start opens a session over cards.
func (m *Manager) Start(ctx context.Context, setID, title string, cards []models.Flashcard) (*Session, error) {
	id, err := models.NewID()
	if err != nil {
		return nil, err
	}
	s := NewSession(id, setID, title, cards)

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, seen: time.Now()}
	m.mu.Unlock()

	logger.FromContext(ctx).WithPrefix("study").Debug("started session %s on set %s with %d cards", id, setID, len(cards))
	return s, nil
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.seen = time.Now()
	return e.session, nil
}

func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle since before now-ttl and returns how many.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if now.Sub(e.seen) > m.ttl {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	log := logger.FromContext(ctx).WithPrefix("study")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				log.Debug("dropped %d idle study sessions", n)
			}
		}
	}
}
