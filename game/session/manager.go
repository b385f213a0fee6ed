package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/smartroad/game/engine"
	"github.com/wricardo/smartroad/game/report"
)

var log = logrus.WithField("module", "session")

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// archiveTimeout bounds how long closing a session waits on the report store.
const archiveTimeout = 5 * time.Second

// Manager handles simulation session lifecycle
type Manager struct {
	sessions map[string]*Session
	archive  report.Store
	onFrame  FrameFunc
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// NewManagerWithArchive creates a session manager that writes a report to
// store whenever a session is deleted or expires
func NewManagerWithArchive(store report.Store) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		archive:  store,
	}
}

// SetFrameHandler registers fn for frames of sessions created afterwards.
func (m *Manager) SetFrameHandler(fn FrameFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = fn
}

// Create creates a new session with the given ID and configuration. An
// empty id gets a generated one.
func (m *Manager) Create(id, configID string, config *engine.Config, opts Options) (*Session, error) {
	if strings.ContainsAny(id, "/?#& ") {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	}

	// Check if session already exists (case-insensitive)
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	session, err := newSession(id, configID, config, opts, m.onFrame)
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	m.sessions[strings.ToLower(id)] = session
	log.Infof("session %s created with config %s", id, configID)
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete stops a session, archives its report and removes it
func (m *Manager) Delete(id string) (*report.Report, error) {
	m.mu.Lock()
	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	delete(m.sessions, strings.ToLower(id))
	m.mu.Unlock()

	return m.close(session)
}

// close ends a session that is no longer reachable through the map.
func (m *Manager) close(session *Session) (*report.Report, error) {
	r := session.Close()
	log.Infof("session %s closed after %d ticks (%d vehicles, %d trips)",
		session.ID, r.Ticks, r.Stats.Vehicles, r.Stats.Trips)

	if m.archive == nil {
		return r, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := m.archive.Save(ctx, r); err != nil {
		return r, fmt.Errorf("failed to archive report: %w", err)
	}
	return r, nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Touch()
	return nil
}

// CleanupExpiredSessions closes sessions that haven't been accessed in the
// given duration and returns how many were removed
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*Session
	for key, session := range m.sessions {
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		if _, err := m.close(session); err != nil {
			log.Warnf("expired session %s: %v", session.ID, err)
		}
	}
	return len(expired)
}

// StartCleanup runs CleanupExpiredSessions every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.CleanupExpiredSessions(maxAge); n > 0 {
					log.Infof("expired %d idle sessions", n)
				}
			}
		}
	}()
}

// Shutdown closes every session, archiving their reports
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	errorCount := 0
	for _, session := range sessions {
		if _, err := m.close(session); err != nil {
			log.Warnf("failed to close session %s: %v", session.ID, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to archive %d sessions", errorCount)
	}
	return nil
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID that is not
// in use. Callers hold m.mu.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}
