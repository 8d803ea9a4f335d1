package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pairchat/internal/telemetry"
)

// RoomCounter reports live websocket connections per chat.
type RoomCounter interface {
	RoomSize(chatID string) int
}

var auditLevels = map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}

// RegisterDebugRoutes wires debug-only endpoints: an audit smoke test and a
// room connection count. Nothing is registered unless enabled.
func RegisterDebugRoutes(router gin.IRouter, emitter *telemetry.AuditEmitter, rooms RoomCounter, enabled bool) {
	if !enabled {
		return
	}

	debug := router.Group("/debug")
	debug.GET("/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		level := strings.ToUpper(c.DefaultQuery("level", "INFO"))
		if !auditLevels[level] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown level " + level})
			return
		}
		text := c.DefaultQuery("text", "audit test")

		requestID := requestIDFromContext(c)
		emitter.Emit(c.Request.Context(), level, text, requestID, userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok", "level": level, "request_id": requestID})
	})

	debug.GET("/chats/:chat_id/connections", func(c *gin.Context) {
		if rooms == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "websocket hub not configured"})
			return
		}
		chatID := strings.ToLower(c.Param("chat_id"))
		c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "connections": rooms.RoomSize(chatID)})
	})
}
