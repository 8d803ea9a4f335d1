package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/internal/models"
	"pairchat/internal/observability"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many frames a client may fall behind before the hub
	// drops it as a slow consumer.
	sendBuffer = 32
)

// frameWriter is the part of *websocket.Conn the hub writes through.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type outbound struct {
	eventType string
	payload   []byte
}

// client owns one connection. Only its writer goroutine touches conn for
// writes; gorilla allows a single writer.
type client struct {
	conn frameWriter
	info ConnInfo

	mu     sync.Mutex
	send   chan outbound
	closed bool
}

func newClient(conn frameWriter, info ConnInfo) *client {
	return &client{conn: conn, info: info, send: make(chan outbound, sendBuffer)}
}

// enqueue never blocks. It reports false when the buffer is full.
func (c *client) enqueue(msg outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub maintains active websocket rooms, one per chat. Broadcasts only queue
// frames, so a stalled socket never delays the request that produced the
// event.
type Hub struct {
	chatRooms map[string]map[frameWriter]*client
	mu        sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{chatRooms: make(map[string]map[frameWriter]*client)}
}

// AddChatClient registers a websocket connection to a chat room and starts
// its writer.
func (h *Hub) AddChatClient(chatID string, conn frameWriter, info ConnInfo) {
	c := newClient(conn, info)
	h.mu.Lock()
	if _, ok := h.chatRooms[chatID]; !ok {
		h.chatRooms[chatID] = make(map[frameWriter]*client)
	}
	h.chatRooms[chatID][conn] = c
	h.mu.Unlock()

	go h.writeLoop(chatID, c)
}

// RemoveChatClient removes a chat websocket connection and stops its writer.
func (h *Hub) RemoveChatClient(chatID string, conn frameWriter) {
	if c := h.detach(chatID, conn); c != nil {
		c.stop()
	}
}

func (h *Hub) detach(chatID string, conn frameWriter) *client {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.chatRooms[chatID]
	if !ok {
		return nil
	}
	c := conns[conn]
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.chatRooms, chatID)
	}
	return c
}

// RoomSize reports how many connections watch a chat.
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chatRooms[chatID])
}

// Notify broadcasts a chat event to every connection in the chat's room.
func (h *Hub) Notify(_ context.Context, event models.ChatEvent) {
	h.BroadcastChatEvent(event)
}

// BroadcastChatEvent queues event for all clients of its chat. Clients whose
// queue is full are closed and dropped.
func (h *Hub) BroadcastChatEvent(event models.ChatEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.chatRooms[event.ChatID]))
	for _, c := range h.chatRooms[event.ChatID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error type=%s: %v", event.Type, err)
		return
	}
	msg := outbound{eventType: event.Type, payload: payload}
	for _, c := range clients {
		if !c.enqueue(msg) {
			log.Printf("websocket slow consumer chat_id=%s conn_id=%s buffered=%d", event.ChatID, c.info.ConnID, sendBuffer)
			h.drop(event.ChatID, c, errSlowConsumer)
		}
	}
}

var errSlowConsumer = errors.New("send buffer full")

func (h *Hub) writeLoop(chatID string, c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg.payload); err != nil {
			log.Printf("websocket write error chat_id=%s conn_id=%s: %v", chatID, c.info.ConnID, err)
			h.drop(chatID, c, err)
			return
		}
		observability.IncWSEvent("chat", msg.eventType)
	}
}

// drop closes the connection, which also ends its read loop in the handler.
func (h *Hub) drop(chatID string, c *client, err error) {
	_ = c.conn.Close()
	h.mu.Lock()
	if conns, ok := h.chatRooms[chatID]; ok && conns[c.conn] == c {
		delete(conns, c.conn)
		if len(conns) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
	h.mu.Unlock()
	c.stop()
	h.publishWSError(chatID, c.info, err)
}

func (h *Hub) publishWSError(chatID string, info ConnInfo, err error) {
	publishWSEvent(context.Background(), chatID, info, "ws_error", err.Error())
}

// publishWSEvent reports connection lifecycle events on the bus.
func publishWSEvent(ctx context.Context, chatID string, info ConnInfo, event, reason string) {
	var duration int64
	if event != "ws_connect" {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "chat",
			"resource_id": chatID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("chat", event)
}
