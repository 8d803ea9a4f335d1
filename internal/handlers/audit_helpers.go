package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pairchat/internal/middleware"
	"pairchat/internal/models"
)

func requestIDFromContext(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *string {
	if id := c.GetString(middleware.UserIDKey); id != "" {
		return &id
	}
	if id, ok := models.CanonicalID(c.GetHeader("X-User-ID")); ok {
		return &id
	}
	return nil
}

func callerID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
