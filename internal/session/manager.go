package session

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealfolio/server/internal/models"
	"dealfolio/server/internal/rents"
)

var ErrSessionNotFound = errors.New("session not found")

// entry pairs a store with its last-access time for expiry sweeps.
type entry struct {
	store    *Store
	lastUsed time.Time
}

// Manager hands out uuid-keyed analysis sessions, one per property a
// client is working on, and expires idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	opts     Options
	ttl      time.Duration
	logger   *logrus.Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a session manager. ttl bounds how long an untouched
// session survives; zero means one hour.
func NewManager(opts Options, ttl time.Duration, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		sessions: make(map[string]*entry),
		opts:     opts,
		ttl:      ttl,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Create opens a new session for a property and returns its id.
func (m *Manager) Create(property models.Property, resolver *rents.Resolver, mode rents.Mode) (string, *Store) {
	id := uuid.NewString()
	store := NewStore(property, resolver, mode, m.opts, m.logger)

	m.mu.Lock()
	m.sessions[id] = &entry{store: store, lastUsed: time.Now()}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id":  id,
		"property_id": property.ID,
		"mode":        string(mode),
	}).Info("Created analysis session")
	return id, store
}

// Get returns the store for a session id, refreshing its last-access time.
func (m *Manager) Get(id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.lastUsed = time.Now()
	return e.store, nil
}

// Delete removes a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartSweeper expires idle sessions on the given interval until Close.
func (m *Manager) StartSweeper(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []string
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		m.logger.WithField("count", len(expired)).Info("Expired idle analysis sessions")
	}
}

// Close stops the sweeper.
func (m *Manager) Close() {
	close(m.done)
	m.wg.Wait()
}
