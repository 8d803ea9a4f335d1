package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/services"
	"pairchat/internal/telemetry"
)

// ChatHandler manages private chat endpoints.
type ChatHandler struct {
	chats         *services.ChatService
	messages      *services.MessageService
	typing        *services.TypingService
	reads         *services.ReadService
	pins          *services.PinService
	conversations *services.ConversationService
	clock         clock.Clock
	audit         *telemetry.AuditEmitter
}

// ChatServices groups the services a ChatHandler needs.
type ChatServices struct {
	Chats         *services.ChatService
	Messages      *services.MessageService
	Typing        *services.TypingService
	Reads         *services.ReadService
	Pins          *services.PinService
	Conversations *services.ConversationService
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(svc ChatServices, clk clock.Clock, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		chats:         svc.Chats,
		messages:      svc.Messages,
		typing:        svc.Typing,
		reads:         svc.Reads,
		pins:          svc.Pins,
		conversations: svc.Conversations,
		clock:         clk,
		audit:         audit,
	}
}

// ListConversations returns the caller's sorted conversation list.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	rows, err := h.conversations.ListConversations(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err, "failed to load conversations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": rows})
}

// StartChat creates or returns the private chat between the caller and peer.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID string `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, created, err := h.chats.GetOrCreate(c.Request.Context(), callerID(c), req.PeerID)
	if err != nil {
		respondError(c, err, "could not create chat")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": chat, "created": created})
}

// GetChat returns chat details to its participants.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, err := h.chats.GetDetails(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "failed to load chat")
		return
	}
	if !chat.HasParticipant(callerID(c)) {
		respondError(c, services.ErrNotParticipant, "")
		return
	}
	c.JSON(http.StatusOK, chat)
}

// SetTyping marks the caller as typing for a few seconds.
func (h *ChatHandler) SetTyping(c *gin.Context) {
	signal, err := h.typing.SetTyping(c.Request.Context(), c.Param("chat_id"), callerID(c))
	if err != nil {
		respondError(c, err, "failed to set typing")
		return
	}
	c.JSON(http.StatusOK, signal)
}

type typingResponse struct {
	models.TypingSignal
	Active bool `json:"active"`
}

// GetTyping lists the chat's typing signals with their liveness at now.
func (h *ChatHandler) GetTyping(c *gin.Context) {
	ok, err := h.chats.IsParticipant(c.Request.Context(), c.Param("chat_id"), callerID(c))
	if err != nil {
		respondError(c, err, "failed to verify membership")
		return
	}
	if !ok {
		respondError(c, services.ErrNotParticipant, "")
		return
	}

	signals, err := h.typing.GetTypingIndicators(c.Request.Context(), c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "failed to load typing indicators")
		return
	}

	now := h.clock.Now()
	resp := make([]typingResponse, 0, len(signals))
	for _, s := range signals {
		resp = append(resp, typingResponse{TypingSignal: s, Active: s.ActiveAt(now)})
	}
	c.JSON(http.StatusOK, gin.H{"now": now, "typing": resp})
}

// MarkRead moves the caller's read watermark to now.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	receipt, err := h.reads.MarkRead(c.Request.Context(), callerID(c), c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "failed to mark chat read")
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// PinChat pins the chat for the caller.
func (h *ChatHandler) PinChat(c *gin.Context) {
	userID := callerID(c)
	pin, err := h.pins.Pin(c.Request.Context(), userID, c.Param("chat_id"))
	if err != nil {
		respondError(c, err, "failed to pin chat")
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "chat pinned chat_id="+pin.ChatID, requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, pin)
}

// UnpinChat removes the caller's pin.
func (h *ChatHandler) UnpinChat(c *gin.Context) {
	userID := callerID(c)
	if err := h.pins.Unpin(c.Request.Context(), userID, c.Param("chat_id")); err != nil {
		respondError(c, err, "failed to unpin chat")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPins returns the caller's pins, newest first.
func (h *ChatHandler) ListPins(c *gin.Context) {
	pins, err := h.pins.ListPins(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err, "failed to load pins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pins": pins})
}
