package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat/internal/models"
	"pairchat/internal/services"
)

// GetChatMessages returns the chat log as seen by the caller.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	msgs, err := h.messages.List(c.Request.Context(), c.Param("chat_id"), callerID(c))
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage stores a chat message and broadcasts it.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	var req struct {
		Content    string             `json:"content"`
		Attachment *models.Attachment `json:"attachment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), services.SendInput{
		ChatID:     c.Param("chat_id"),
		SenderID:   callerID(c),
		Content:    req.Content,
		Attachment: req.Attachment,
	})
	if err != nil {
		respondError(c, err, "failed to store message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SearchChatMessages runs a full-text search inside one chat.
func (h *ChatHandler) SearchChatMessages(c *gin.Context) {
	msgs, err := h.messages.Search(c.Request.Context(), c.Param("chat_id"), c.Query("q"), callerID(c))
	if err != nil {
		respondError(c, err, "failed to search messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// DeleteMessageForMe hides a message from the caller only.
func (h *ChatHandler) DeleteMessageForMe(c *gin.Context) {
	if err := h.messages.DeleteForMe(c.Request.Context(), c.Param("message_id"), callerID(c)); err != nil {
		respondError(c, err, "failed to delete message")
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMessageForAll replaces a message for both participants.
func (h *ChatHandler) DeleteMessageForAll(c *gin.Context) {
	userID := callerID(c)
	msg, err := h.messages.DeleteForEveryone(c.Request.Context(), c.Param("message_id"), userID)
	if err != nil {
		respondError(c, err, "failed to delete message")
		return
	}
	h.audit.Emit(c.Request.Context(), "INFO", "message deleted for everyone message_id="+msg.ID, requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, msg)
}
