// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fiscal-hub/internal/model"
)

// WebSocket message types
const (
	MessageSubscribe     = "subscribe"
	MessageUnsubscribe   = "unsubscribe"
	MessagePing          = "ping"
	MessagePong          = "pong"
	MessageStatus        = "status"
	MessageInitialStatus = "initial_status"
	MessageFiscalEvent   = "fiscal_event"
	MessageSubscribed    = "subscription_confirmed"
	MessageUnsubscribed  = "unsubscription_confirmed"
	MessageError         = "error"
)

// Client represents a WebSocket client. A client with no subscriptions
// receives every event.
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	mutex         sync.RWMutex
	subscriptions map[model.EventType]bool
}

func (c *Client) subscribe(eventType model.EventType) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	c.subscriptions[eventType] = true
}

func (c *Client) unsubscribe(eventType model.EventType) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.subscriptions, eventType)
}

// Wants reports whether the client receives events of the given type
func (c *Client) Wants(eventType model.EventType) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[eventType]
}

// Subscriptions lists the event types the client asked for
func (c *Client) Subscriptions() []model.EventType {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	types := make([]model.EventType, 0, len(c.subscriptions))
	for eventType := range c.subscriptions {
		types = append(types, eventType)
	}
	return types
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// SubscriptionData is the payload of subscribe and unsubscribe messages
type SubscriptionData struct {
	EventType model.EventType `json:"event_type"`
}

// ConnectionManager manages WebSocket connections
type ConnectionManager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	manager := &ConnectionManager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	go manager.run()
	return manager
}

// run starts the connection manager
func (cm *ConnectionManager) run() {
	for {
		select {
		case client := <-cm.register:
			cm.mutex.Lock()
			cm.clients[client.ID] = client
			cm.mutex.Unlock()

		case client := <-cm.unregister:
			cm.mutex.Lock()
			if _, ok := cm.clients[client.ID]; ok {
				delete(cm.clients, client.ID)
				close(client.Send)
			}
			cm.mutex.Unlock()
		}
	}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.register <- client
}

// Unregister unregisters a client
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.unregister <- client
}

// Broadcast queues message for every client that wants eventType and
// returns the ids of clients whose queue was full. The read lock keeps
// Send open while queuing.
func (cm *ConnectionManager) Broadcast(eventType model.EventType, message []byte) []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var dropped []string
	for _, client := range cm.clients {
		if !client.Wants(eventType) {
			continue
		}
		select {
		case client.Send <- message:
		default:
			dropped = append(dropped, client.ID)
		}
	}
	return dropped
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByEventType:      make(map[model.EventType]int),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}

	for _, client := range cm.clients {
		for _, eventType := range client.Subscriptions() {
			stats.ByEventType[eventType]++
		}
		stats.Clients = append(stats.Clients, client)
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int                     `json:"total_connections"`
	ByEventType      map[model.EventType]int `json:"by_event_type"`
	Clients          []*Client               `json:"clients"`
}
