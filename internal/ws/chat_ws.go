package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"pairchat/internal/models"
	"pairchat/internal/observability"
	"pairchat/internal/services"
)

const maxFrameSize = 64 << 10

// ChatGuard checks chat membership.
type ChatGuard interface {
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// PresenceToucher refreshes presence on heartbeat frames.
type PresenceToucher interface {
	Heartbeat(ctx context.Context, userID string) error
}

// TypingSetter records typing frames.
type TypingSetter interface {
	SetTyping(ctx context.Context, chatID, userID string) (models.TypingSignal, error)
}

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub      *Hub
	chats    ChatGuard
	presence PresenceToucher
	typing   TypingSetter
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chats ChatGuard, presence PresenceToucher, typing TypingSetter) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chats: chats, presence: presence, typing: typing}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is what clients send over the socket.
type clientFrame struct {
	Type string `json:"type"`
}

// Handle upgrades the connection, registers the client and serves its frames
// until the socket closes.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")

	ctx, span := otel.Tracer("pairchat/ws").Start(c.Request.Context(), "ws.handshake")
	traceID := span.SpanContext().TraceID().String()

	rawUserID := c.Query("user_id")
	if rawUserID == "" {
		rawUserID = c.GetHeader("X-User-ID")
	}
	userID, ok := models.CanonicalID(rawUserID)
	if !ok {
		span.End()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user id"})
		return
	}

	member, err := h.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		span.End()
		status, msg := http.StatusInternalServerError, "failed to verify membership"
		if errors.Is(err, services.ErrNotFound) {
			status, msg = http.StatusNotFound, "chat not found"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	if !member {
		span.End()
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	span.End()
	if err != nil {
		return
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddChatClient(chatID, conn, info)
	observability.IncWSActive("chat")
	publishWSEvent(ctx, chatID, info, "ws_connect", "")

	ctx = observability.WithRequestID(context.WithoutCancel(ctx), requestID)
	closeReason := h.readLoop(ctx, conn, chatID, userID, info)

	h.hub.RemoveChatClient(chatID, conn)
	observability.DecWSActive("chat")
	publishWSEvent(ctx, chatID, info, "ws_disconnect", closeReason)
	_ = conn.Close()
}

func (h *ChatWebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, chatID, userID string, info ConnInfo) string {
	conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(ctx, chatID, info, "ws_error", err.Error())
			}
			return err.Error()
		}
		h.handleFrame(ctx, chatID, userID, data)
	}
}

func (h *ChatWebSocketHandler) handleFrame(ctx context.Context, chatID, userID string, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Printf("websocket bad frame chat_id=%s user_id=%s: %v", chatID, userID, err)
		return
	}

	switch frame.Type {
	case models.EventTyping:
		if _, err := h.typing.SetTyping(ctx, chatID, userID); err != nil {
			log.Printf("websocket typing failed chat_id=%s user_id=%s: %v", chatID, userID, err)
		}
	case "heartbeat":
		if err := h.presence.Heartbeat(ctx, userID); err != nil {
			log.Printf("websocket heartbeat failed user_id=%s: %v", userID, err)
		}
	default:
		log.Printf("websocket unknown frame type=%q chat_id=%s", frame.Type, chatID)
	}
}
