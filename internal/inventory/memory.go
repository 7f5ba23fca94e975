package inventory

import (
	"fmt"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

type websiteKey struct {
	serverID  string
	websiteID string
}

type websitePos struct {
	server  int
	website int
}

// MemoryStore is an in-memory implementation of [Store].
//
// The server list is fixed at construction; only website statuses change.
// Positions are resolved through an id index built once, so updates are
// merged by id rather than by a slice index captured from an older snapshot.
//
// Subscribers receive updates via buffered channels. Sends are non-blocking;
// if a subscriber's buffer is full the update is dropped for that subscriber.
type MemoryStore struct {
	mu      sync.RWMutex
	servers []Server
	servIdx map[string]int
	siteIdx map[websiteKey]websitePos

	subMu       sync.RWMutex
	subscribers map[chan StatusUpdate]struct{}
}

// NewMemoryStore creates a store holding a private copy of servers.
func NewMemoryStore(servers []Server) *MemoryStore {
	m := &MemoryStore{
		servers:     make([]Server, len(servers)),
		servIdx:     make(map[string]int, len(servers)),
		siteIdx:     make(map[websiteKey]websitePos),
		subscribers: make(map[chan StatusUpdate]struct{}),
	}

	for i, s := range servers {
		m.servers[i] = s.clone()
		m.servIdx[s.ID] = i
		for j, w := range s.Websites {
			m.siteIdx[websiteKey{serverID: s.ID, websiteID: w.ID}] = websitePos{server: i, website: j}
		}
	}

	return m
}

// Servers returns a snapshot of all servers.
func (m *MemoryStore) Servers() []Server {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Server, len(m.servers))
	for i, s := range m.servers {
		out[i] = s.clone()
	}
	return out
}

// Server returns a snapshot of the server with the given id.
func (m *MemoryStore) Server(id string) (Server, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.servIdx[id]
	if !ok {
		return Server{}, false
	}
	return m.servers[i].clone(), true
}

// Targets builds the probe work list. An empty serverID selects all servers.
func (m *MemoryStore) Targets(serverID string) ([]Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	servers := m.servers
	if serverID != "" {
		i, ok := m.servIdx[serverID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
		}
		servers = m.servers[i : i+1]
	}

	var targets []Target
	for _, s := range servers {
		for _, w := range s.Websites {
			targets = append(targets, Target{
				ServerID:   s.ID,
				WebsiteID:  w.ID,
				Name:       w.Name,
				PrimaryURL: w.PrimaryURL,
			})
		}
	}
	return targets, nil
}

// UpdateStatus writes status for one website and notifies subscribers.
func (m *MemoryStore) UpdateStatus(serverID, websiteID string, status Status) error {
	m.mu.Lock()
	pos, ok := m.siteIdx[websiteKey{serverID: serverID, websiteID: websiteID}]
	if !ok {
		m.mu.Unlock()
		if _, known := m.servIdx[serverID]; !known {
			return fmt.Errorf("%w: %s", ErrServerNotFound, serverID)
		}
		return fmt.Errorf("%w: %s/%s", ErrWebsiteNotFound, serverID, websiteID)
	}
	m.servers[pos.server].Websites[pos.website].Status = status
	m.mu.Unlock()

	m.notifySubscribers(StatusUpdate{ServerID: serverID, WebsiteID: websiteID, Status: status})
	return nil
}

// Subscribe creates a new subscription with a buffer of 100 updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan StatusUpdate {
	ch := make(chan StatusUpdate, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan StatusUpdate) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers is non-blocking: a full subscriber buffer drops the update.
func (m *MemoryStore) notifySubscribers(update StatusUpdate) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}
