package connection

import (
	"context"
	"sync"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

// Client represents a connected websocket client
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Runs []string // Runs the client is watching
}

// Manager handles all client connections
type Manager struct {
	clients    map[string]*Client
	runMap     map[string][]string // run ID -> watching client IDs
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		runMap:     make(map[string][]string),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run processes registrations until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-m.Register:
			m.mutex.Lock()
			m.clients[client.ID] = client
			m.mutex.Unlock()
		case client := <-m.Unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client.ID]; ok {
				for _, runID := range client.Runs {
					m.runMap[runID] = remove(m.runMap[runID], client.ID)
					if len(m.runMap[runID]) == 0 {
						delete(m.runMap, runID)
					}
				}
				delete(m.clients, client.ID)
				close(client.Send)
			}
			m.mutex.Unlock()
		}
	}
}

// SendToClient queues a message for one client. It never blocks: a client
// whose buffer is full misses the message.
func (m *Manager) SendToClient(clientID string, message []byte) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	client, ok := m.clients[clientID]
	if !ok {
		return false
	}
	return trySend(client, message)
}

// SendToRun sends a message to every client watching a run
func (m *Manager) SendToRun(runID string, message []byte) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sent := 0
	for _, clientID := range m.runMap[runID] {
		if client, ok := m.clients[clientID]; ok && trySend(client, message) {
			sent++
		}
	}
	return sent
}

// WatchRun subscribes a client to a run's events
func (m *Manager) WatchRun(clientID string, runID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[clientID]
	if !ok {
		return false
	}
	for _, id := range client.Runs {
		if id == runID {
			return true
		}
	}
	client.Runs = append(client.Runs, runID)
	m.runMap[runID] = append(m.runMap[runID], clientID)
	return true
}

// UnwatchRun drops a client's subscription to a run
func (m *Manager) UnwatchRun(clientID string, runID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client, ok := m.clients[clientID]; ok {
		client.Runs = remove(client.Runs, runID)
	}
	m.runMap[runID] = remove(m.runMap[runID], clientID)
	if len(m.runMap[runID]) == 0 {
		delete(m.runMap, runID)
	}
}

// IsWatching checks if a client is subscribed to a run
func (m *Manager) IsWatching(clientID string, runID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, id := range m.runMap[runID] {
		if id == clientID {
			return true
		}
	}
	return false
}

// ClientCount returns the number of registered clients
func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.clients)
}

// trySend must be called with the manager's lock held, so Send is not
// closed underneath it.
func trySend(client *Client, message []byte) bool {
	select {
	case client.Send <- message:
		return true
	default:
		glog.Warningf("client %s: send buffer full, dropping message", client.ID)
		return false
	}
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
