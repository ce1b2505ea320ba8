package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// EventType represents the type of progress event pushed to clients.
type EventType string

const (
	EventUploadProgress EventType = "upload_progress"
	EventUploadComplete EventType = "upload_complete"
	EventUploadError    EventType = "upload_error"
	EventUploadCanceled EventType = "upload_canceled"
)

// Event is one message pushed over the upload-progress socket.
type Event struct {
	Type     EventType              `json:"type"`
	UploadID string                 `json:"upload_id,omitempty"`
	MediaID  string                 `json:"media_id,omitempty"`
	Progress int                    `json:"progress,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	UserID uint
	Conn   *websocket.Conn
}

// Manager fans upload events out to each user's open connections.
type Manager struct {
	mu      sync.RWMutex
	clients map[uint][]*Client
}

var (
	instance *Manager
	once     sync.Once
)

// GetManager returns the singleton WebSocket manager instance
func GetManager() *Manager {
	once.Do(func() {
		instance = &Manager{clients: make(map[uint][]*Client)}
	})
	return instance
}

// Register adds a client connection for a user.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	m.clients[client.UserID] = append(m.clients[client.UserID], client)
	m.mu.Unlock()
}

// Unregister removes a client connection.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clients, ok := m.clients[client.UserID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			m.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(m.clients[client.UserID]) == 0 {
		delete(m.clients, client.UserID)
	}
}

// Send pushes an event to every connection a user has open. Write failures on
// one connection do not stop delivery to the others.
func (m *Manager) Send(userID uint, event *Event) error {
	m.mu.RLock()
	clients := append([]*Client(nil), m.clients[userID]...)
	m.mu.RUnlock()

	if len(clients) == 0 {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, client := range clients {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			continue
		}
	}
	return nil
}

// SendUploadProgress pushes a progress percentage for an upload session.
func (m *Manager) SendUploadProgress(userID uint, uploadID string, progress int) {
	m.Send(userID, &Event{Type: EventUploadProgress, UploadID: uploadID, Progress: progress})
}

// SendUploadComplete pushes a completion event carrying the created media.
func (m *Manager) SendUploadComplete(userID uint, uploadID, mediaID string, data map[string]interface{}) {
	m.Send(userID, &Event{Type: EventUploadComplete, UploadID: uploadID, MediaID: mediaID, Progress: 100, Data: data})
}

// SendUploadError pushes a failure event for an upload session.
func (m *Manager) SendUploadError(userID uint, uploadID, message string) {
	m.Send(userID, &Event{Type: EventUploadError, UploadID: uploadID, Message: message})
}
