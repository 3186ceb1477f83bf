package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/gorilla/websocket"
)

// DefaultRoom - канал присутствия по умолчанию.
const DefaultRoom = "live-tournament"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	room     string
	isClosed bool
	mu       sync.Mutex
	joined   chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		room:   room,
		joined: make(chan struct{}),
	}
}

func (c *Client) Room() string { return c.room }

// Send queues one message for this client only. It reports false when the client is
// gone or its buffer is full.
func (c *Client) Send(message interface{}) bool {
	data, err := json.Marshal(message)
	if err != nil {
		c.hub.logger.Error("failed to marshal client message", slog.Any("error", err))
		return false
	}
	return c.enqueue(data)
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isClosed {
		close(c.send)
		c.isClosed = true
	}
}

// Hub tracks websocket clients per room. Room membership doubles as presence: the
// viewer count of a room is the number of its open connections.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	done       chan struct{}
	logger     *slog.Logger

	// OnPresence вызывается при каждом изменении числа зрителей комнаты.
	OnPresence func(room string, count int)
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			count := len(h.rooms[client.room])
			h.mu.Unlock()
			close(client.joined)

			h.logger.Debug("client joined room", slog.String("room", client.room), slog.Int("viewers", count))
			h.presenceChanged(client.room, count)

		case client := <-h.unregister:
			h.mu.Lock()
			clients, ok := h.rooms[client.room]
			if !ok || !clients[client] {
				h.mu.Unlock()
				continue
			}
			client.close()
			delete(clients, client)
			count := len(clients)
			if count == 0 {
				delete(h.rooms, client.room)
			}
			h.mu.Unlock()

			h.logger.Debug("client left room", slog.String("room", client.room), slog.Int("viewers", count))
			h.presenceChanged(client.room, count)
		}
	}
}

// Register adds the client to its room and returns once it is a member, so anything
// broadcast afterwards reaches it.
func (h *Hub) Register(ctx context.Context, client *Client) bool {
	select {
	case h.register <- client:
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
	select {
	case <-client.joined:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unregister is a no-op once Run has returned.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) presenceChanged(room string, count int) {
	if h.OnPresence != nil {
		h.OnPresence(room, count)
	}
	h.BroadcastToRoom(room, models.ScoreboardMessage{
		Type:    models.MessageViewers,
		Payload: models.ViewerCount{Count: count},
		RoomID:  room,
	})
}

func (h *Hub) ViewerCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom отправляет сообщение всем клиентам в указанной комнате.
// Clients whose buffer is full miss the message.
func (h *Hub) BroadcastToRoom(room string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", slog.String("room", room), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		if !client.enqueue(data) {
			h.logger.Warn("client send buffer full, message skipped", slog.String("room", room))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			client.close()
		}
		delete(h.rooms, room)
	}
}

// RoomSink broadcasts every match change to one room. It satisfies feed.Sink.
type RoomSink struct {
	Hub  *Hub
	Room string
}

func (s RoomSink) Publish(change models.MatchChange) {
	s.Hub.BroadcastToRoom(s.Room, models.ScoreboardMessage{
		Type:    models.MessageMatchChange,
		Payload: change,
		RoomID:  s.Room,
	})
}

// ReadPump drains client frames (pongs, close) and unregisters the client when the
// connection ends. Viewers never send commands over the socket.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket closed unexpectedly", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно сообщение на фрейм: клиенты разбирают каждый фрейм как JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write failed", slog.String("room", c.room), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
