package services

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hidroweb/backend/internal/utils"
	"go.uber.org/zap"
)

// Client represents a websocket client connection
type Client struct {
	conn      *websocket.Conn
	growerUID string
	send      chan []byte
}

// EventType defines types of realtime events
type EventType string

const (
	// EventTypeAlert for new out-of-range alerts
	EventTypeAlert EventType = "alert"
	// EventTypeResolution for alerts returning to normal
	EventTypeResolution EventType = "resolution"
	// EventTypeStale for readings that aged out of the recency window
	EventTypeStale EventType = "stale"
	// EventTypeCropUpdate for crop create/update/delete events
	EventTypeCropUpdate EventType = "crop_update"
)

// Event represents a message pushed to connected clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	CropID    string      `json:"cultivoId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// Hub manages websocket connections and pushes alert lifecycle events
// to the growers they belong to. The clients map is owned by the run
// goroutine; all access goes through the channels.
type Hub struct {
	logger     *utils.Logger
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *growerEvent
}

type growerEvent struct {
	growerUID string // empty means every client
	event     *Event
}

// NewHub creates a hub and starts its dispatch loop
func NewHub(logger *utils.Logger) *Hub {
	hub := &Hub{
		logger:     logger.Named("hub"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *growerEvent, 256),
	}

	go hub.run()
	return hub
}

// RegisterClient adds a new websocket client for a grower
func (h *Hub) RegisterClient(conn *websocket.Conn, growerUID string) *Client {
	client := &Client{
		conn:      conn,
		growerUID: growerUID,
		send:      make(chan []byte, 256),
	}

	h.register <- client

	go h.readPump(client)
	go h.writePump(client)

	return client
}

// NotifyGrower pushes an event to every connection of one grower
func (h *Hub) NotifyGrower(growerUID string, eventType EventType, cropID string, payload interface{}) {
	h.broadcast <- &growerEvent{
		growerUID: growerUID,
		event: &Event{
			Type:      eventType,
			Timestamp: time.Now(),
			CropID:    cropID,
			Payload:   payload,
		},
	}
}

// Notify pushes an event to every connected client
func (h *Hub) Notify(eventType EventType, cropID string, payload interface{}) {
	h.broadcast <- &growerEvent{
		event: &Event{
			Type:      eventType,
			Timestamp: time.Now(),
			CropID:    cropID,
			Payload:   payload,
		},
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("Client registered",
				zap.String("grower_uid", client.growerUID))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug("Client unregistered",
				zap.String("grower_uid", client.growerUID))

		case ge := <-h.broadcast:
			for client := range h.clients {
				if ge.growerUID == "" || client.growerUID == ge.growerUID {
					h.sendToClient(client, ge.event)
				}
			}
		}
	}
}

func (h *Hub) sendToClient(client *Client, event *Event) {
	jsonMessage, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event",
			zap.Error(err),
			zap.String("type", string(event.Type)))
		return
	}

	select {
	case client.send <- jsonMessage:
	default:
		// Client's send buffer is full
		delete(h.clients, client)
		close(client.send)
		h.logger.Warn("Client buffer full, connection closed",
			zap.String("grower_uid", client.growerUID))
	}
}

// readPump drains client messages and detects disconnects
func (h *Hub) readPump(client *Client) {
	defer func() {
		h.unregister <- client
		client.conn.Close()
	}()

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				h.logger.Warn("Unexpected websocket close",
					zap.Error(err),
					zap.String("grower_uid", client.growerUID))
			}
			return
		}
	}
}

// writePump writes events to the client and keeps the connection alive
func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := client.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(client.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-client.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
