package http

import "github.com/gin-gonic/gin"

func RegisterRecommendationRoutes(r *gin.Engine, handler *RecommendationHandler) {
	conversations := r.Group("/conversations")
	{
		conversations.POST("/:id/recommendations", handler.Recommend)
	}
}
