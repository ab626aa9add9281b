package http

import "github.com/gin-gonic/gin"

func RegisterConversationRoutes(r *gin.Engine, handler *ConversationHandler) {
	conversations := r.Group("/conversations")
	{
		conversations.POST("/", handler.CreateConversation)
		conversations.POST("/:id/messages", handler.AddMessage)
		conversations.GET("/:id/messages", handler.ListMessages)
	}
}
