package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat/internal/services"
	"pairchat/internal/telemetry"
)

// UserHandler serves registration and presence endpoints.
type UserHandler struct {
	identity *services.IdentityService
	audit    *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(identity *services.IdentityService, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{identity: identity, audit: audit}
}

// Register creates or reactivates a display-name user.
func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, created, err := h.identity.Register(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "failed to register")
		return
	}
	if created {
		h.audit.Emit(c.Request.Context(), "INFO", "user registered", requestIDFromContext(c), &user.ID)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": user, "created": created})
}

// Heartbeat refreshes the caller's presence.
func (h *UserHandler) Heartbeat(c *gin.Context) {
	if err := h.identity.Heartbeat(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err, "failed to record heartbeat")
		return
	}
	c.Status(http.StatusNoContent)
}

// Logout marks the caller offline.
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.identity.Logout(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err, "failed to log out")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers returns every user except the caller.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.identity.ListUsers(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err, "failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetUser returns a single user.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.identity.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}
