package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat/internal/services"
)

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported with the generic fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusForbidden, "only the sender can do this"
	case errors.Is(err, services.ErrNotParticipant):
		status, msg = http.StatusForbidden, "not a chat member"
	case errors.Is(err, services.ErrWindowExpired):
		status, msg = http.StatusConflict, "delete window has expired"
	case errors.Is(err, services.ErrLimitExceeded):
		status, msg = http.StatusConflict, "pin limit reached"
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		log.Printf("request failed method=%s path=%s request_id=%s err=%v", c.Request.Method, c.FullPath(), requestIDFromContext(c), err)
	}
	c.JSON(status, gin.H{"error": msg})
}
