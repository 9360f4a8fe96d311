package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lithicearth/lithicearth-server/internal/flavor"
	"github.com/lithicearth/lithicearth-server/internal/state"
	"github.com/lithicearth/lithicearth-server/internal/ws"
)

type managed struct {
	sess *Session
	key  string
}

type sharedStore struct {
	store *state.Store
	refs  int
}

// Manager manages all active sessions, keyed by client ID. Sessions of the
// same profile share one state store.
type Manager struct {
	sessions map[string]managed
	stores   map[string]*sharedStore
	slot     state.Slot
	flavor   *flavor.Catalog
	metrics  *Metrics
	mu       sync.RWMutex
}

// NewManager creates a session manager. Sessions persist their state in
// slot; a nil slot keeps every session in memory.
func NewManager(slot state.Slot, catalog *flavor.Catalog, metrics *Metrics) *Manager {
	return &Manager{
		sessions: make(map[string]managed),
		stores:   make(map[string]*sharedStore),
		slot:     slot,
		flavor:   catalog,
		metrics:  metrics,
	}
}

// Open starts a session for client on the profile's state. An existing
// session for the same client is closed first.
func (m *Manager) Open(ctx context.Context, client *ws.Client, profileID string) *Session {
	key := state.SlotKey(profileID)

	m.mu.Lock()
	shared, ok := m.stores[key]
	if !ok {
		shared = &sharedStore{store: state.Open(ctx, m.slot, profileID)}
		m.stores[key] = shared
	}
	shared.refs++
	sess := New(client.ID, client, shared.store, m.flavor, m.metrics)
	prev, hadPrev := m.sessions[client.ID]
	m.sessions[client.ID] = managed{sess: sess, key: key}
	if hadPrev {
		m.releaseLocked(prev.key)
	}
	m.mu.Unlock()

	if hadPrev {
		prev.sess.Close()
	}
	sess.Start()
	slog.Info("session opened", "client", client.ID, "profile", profileID)
	return sess
}

// releaseLocked drops one reference to a shared store. Caller must hold mu.
func (m *Manager) releaseLocked(key string) {
	shared := m.stores[key]
	if shared == nil {
		return
	}
	shared.refs--
	if shared.refs <= 0 {
		delete(m.stores, key)
	}
}

// Get returns the session for a client, or nil.
func (m *Manager) Get(clientID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[clientID].sess
}

// Remove closes and forgets the session for a client.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	e, ok := m.sessions[clientID]
	if ok {
		delete(m.sessions, clientID)
		m.releaseLocked(e.key)
	}
	m.mu.Unlock()

	if ok {
		e.sess.Close()
		slog.Info("session removed", "client", clientID)
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, e := range m.sessions {
		sessions = append(sessions, e.sess)
		delete(m.sessions, id)
	}
	clear(m.stores)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
