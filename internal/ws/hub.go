package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/windoze95/reme-voice/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Whisper utterances arrive as
	// base64 audio, so this is far above what text messages need.
	maxMessageSize = 4 << 20

	sendBufferSize = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	RoomID    string
	SessionID string
	UserID    uint

	mu     sync.Mutex
	closed bool
}

// Enqueue queues msg for the write pump without blocking. It returns false
// when the client is gone or its buffer is full.
func (c *Client) Enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Hub tracks the connected voice clients, grouped in rooms by conversation
// id, and broadcasts messages to a room.
type Hub struct {
	Rooms      map[string]map[*Client]bool // roomID -> set of clients
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *RoomMessage
	mu         sync.RWMutex
	done       chan struct{}
}

// RoomMessage carries a message destined for a specific room.
type RoomMessage struct {
	RoomID  string
	Message []byte
	Sender  *Client // nil for system messages
}

// NewHub creates and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *RoomMessage, 64),
		done:       make(chan struct{}),
	}
}

// Join registers client. It returns false when the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Run handles register, unregister, and broadcast events until ctx is
// done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	log := logger.Get()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for roomID, clients := range h.Rooms {
				for client := range clients {
					client.close()
				}
				delete(h.Rooms, roomID)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.RoomID] == nil {
				h.Rooms[client.RoomID] = make(map[*Client]bool)
			}
			h.Rooms[client.RoomID][client] = true
			h.mu.Unlock()

			log.Info("client registered",
				zap.String("room_id", client.RoomID),
				zap.String("session_id", client.SessionID),
			)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

			log.Info("client unregistered",
				zap.String("room_id", client.RoomID),
				zap.String("session_id", client.SessionID),
			)

		case msg := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.Rooms[msg.RoomID] {
				if msg.Sender != nil && client == msg.Sender {
					continue
				}
				if !client.Enqueue(msg.Message) {
					// Send buffer is full; disconnect it.
					log.Warn("dropping slow client", zap.String("session_id", client.SessionID))
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.Rooms[client.RoomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; exists {
		delete(clients, client)
		client.close()
		if len(clients) == 0 {
			delete(h.Rooms, client.RoomID)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.Rooms {
		n += len(clients)
	}
	return n
}

// Publish broadcasts a protocol message to every client of a room. It
// never blocks; when the broadcast queue is full the message is dropped.
func (h *Hub) Publish(roomID, msgType string, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		logger.Get().Error("failed to encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	select {
	case h.Broadcast <- &RoomMessage{RoomID: roomID, Message: data}:
	default:
		logger.Get().Warn("broadcast queue full, dropping message",
			zap.String("room_id", roomID),
			zap.String("type", msgType),
		)
	}
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: raw})
}

// ReadPump reads messages from the WebSocket connection. It is intended to be
// run in a per-client goroutine. The provided handler is called for each
// incoming message.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				logger.Get().Warn("unexpected websocket close",
					zap.String("room_id", c.RoomID),
					zap.String("session_id", c.SessionID),
					zap.Error(err),
				)
			}
			break
		}
		handler(c, message)
	}
}

// WritePump sends messages from the Send channel to the WebSocket connection.
// It also sends periodic pings to keep the connection alive. It is intended to
// be run in a per-client goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
