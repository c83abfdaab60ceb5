package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Session event types pushed to the connected client
const (
	MsgTick    MessageType = "tick"
	MsgTimeUp  MessageType = "time_up"
	MsgScoring MessageType = "scoring"
	MsgScored  MessageType = "scored"
	MsgError   MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections keyed by session ID. A session has at
// most one live connection; a newer connection replaces the older one.
type Hub struct {
	conns map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *SessionMessage
	disconnect chan string
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID string
	UserID    string
	Send      chan []byte
	Hub       *Hub
}

// SessionMessage is a message addressed to a session's connection
type SessionMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *SessionMessage, 256),
		disconnect: make(chan string),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if existing, ok := h.conns[conn.SessionID]; ok {
				close(existing.Send)
			}
			h.conns[conn.SessionID] = conn
			log.Printf("Client connected to session %s", conn.SessionID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.SessionID]; ok && existing == conn {
				delete(h.conns, conn.SessionID)
				close(conn.Send)
				log.Printf("Client disconnected from session %s", conn.SessionID)
			}
			h.mu.Unlock()

		case sessionID := <-h.disconnect:
			h.mu.Lock()
			if conn, ok := h.conns[sessionID]; ok {
				delete(h.conns, sessionID)
				close(conn.Send)
				log.Printf("Session %s connection closed by server", sessionID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if conn, ok := h.conns[msg.SessionID]; ok {
				data, _ := json.Marshal(msg.Message)
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// PublishToSession sends a message to the session's connection, if any
// (implements service.Broadcaster)
func (h *Hub) PublishToSession(sessionID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &SessionMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// DisconnectSession closes the session's connection, if any
// (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	h.disconnect <- sessionID
}
