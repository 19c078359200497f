package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeStageChanged     MessageType = "stage_changed"
	MessageTypeSeatsUpdated     MessageType = "seats_updated"
	MessageTypeBookingConfirmed MessageType = "booking_confirmed"
	MessageTypeSubmissionFailed MessageType = "submission_failed"
	MessageTypeSessionClosed    MessageType = "session_closed"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"sessionId"`
	Stage     string      `json:"stage,omitempty"`
	Seats     []string    `json:"seats,omitempty"`
	PNR       string      `json:"pnr,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Hub fans session updates out to the WebSocket clients watching that session
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			log.Printf("WebSocket: Client registered for session %s (total: %d)", client.sessionID, len(h.clients[client.sessionID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("WebSocket: Failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			clients := h.clients[message.SessionID]
			log.Printf("WebSocket: Broadcasting %s to %d clients for session %s", message.Type, len(clients), message.SessionID)
			for client := range clients {
				select {
				case client.send <- data:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	log.Printf("WebSocket: Client unregistered from session %s (remaining: %d)", client.sessionID, len(clients))
	if len(clients) == 0 {
		delete(h.clients, client.sessionID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

func (h *Hub) publish(msg *Message) {
	msg.Timestamp = time.Now().UnixMilli()
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("WebSocket: Broadcast queue full, dropping %s for session %s", msg.Type, msg.SessionID)
	}
}

// BroadcastStageChanged notifies clients that the wizard moved to another stage
func (h *Hub) BroadcastStageChanged(sessionID, stage string) {
	h.publish(&Message{Type: MessageTypeStageChanged, SessionID: sessionID, Stage: stage})
}

// BroadcastSeatsUpdated notifies clients of the session's current seat selection
func (h *Hub) BroadcastSeatsUpdated(sessionID string, seats []string) {
	h.publish(&Message{Type: MessageTypeSeatsUpdated, SessionID: sessionID, Seats: seats})
}

// BroadcastBookingConfirmed notifies clients that the booking was created
func (h *Hub) BroadcastBookingConfirmed(sessionID, pnr string) {
	h.publish(&Message{
		Type:      MessageTypeBookingConfirmed,
		SessionID: sessionID,
		PNR:       pnr,
		Message:   "Your booking is confirmed",
	})
}

// BroadcastSubmissionFailed notifies clients that submitting the booking failed and may be retried
func (h *Hub) BroadcastSubmissionFailed(sessionID, reason string) {
	h.publish(&Message{Type: MessageTypeSubmissionFailed, SessionID: sessionID, Message: reason})
}

// BroadcastSessionClosed notifies clients that the session was abandoned or expired
func (h *Hub) BroadcastSessionClosed(sessionID, reason string) {
	h.publish(&Message{Type: MessageTypeSessionClosed, SessionID: sessionID, Message: reason})
}

// ClientCount returns the number of clients watching a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
