package handlers

import (
	"github.com/gin-gonic/gin"

	"pairchat/internal/middleware"
)

// RegisterRoutes wires the public HTTP API. Everything except registration
// requires the X-User-ID identity.
func RegisterRoutes(router gin.IRouter, users *UserHandler, chats *ChatHandler) {
	router.POST("/users/register", users.Register)

	authed := router.Group("/", middleware.Identity())
	authed.POST("/users/heartbeat", users.Heartbeat)
	authed.POST("/users/logout", users.Logout)
	authed.GET("/users", users.ListUsers)
	authed.GET("/users/:user_id", users.GetUser)

	authed.GET("/conversations", chats.ListConversations)
	authed.GET("/pins", chats.ListPins)

	authed.POST("/chats", chats.StartChat)
	authed.GET("/chats/:chat_id", chats.GetChat)
	authed.GET("/chats/:chat_id/messages", chats.GetChatMessages)
	authed.POST("/chats/:chat_id/messages", chats.PostChatMessage)
	authed.GET("/chats/:chat_id/search", chats.SearchChatMessages)
	authed.POST("/chats/:chat_id/typing", chats.SetTyping)
	authed.GET("/chats/:chat_id/typing", chats.GetTyping)
	authed.POST("/chats/:chat_id/read", chats.MarkRead)
	authed.PUT("/chats/:chat_id/pin", chats.PinChat)
	authed.DELETE("/chats/:chat_id/pin", chats.UnpinChat)

	authed.DELETE("/messages/:message_id/me", chats.DeleteMessageForMe)
	authed.DELETE("/messages/:message_id/all", chats.DeleteMessageForAll)
}
