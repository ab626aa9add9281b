package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	"github.com/davicafu/tiendalab/internal/recommendation/application"
)

// RecommendationHandler encapsula los endpoints HTTP relacionados con Recommendation
type RecommendationHandler struct {
	service *application.RecommendationService
}

// NewRecommendationHandler crea un nuevo RecommendationHandler
func NewRecommendationHandler(service *application.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// ---------------- Handlers ----------------

// Recommend endpoint POST /conversations/:id/recommendations
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reco, err := h.service.Recommend(c.Request.Context(), id, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, convDomain.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		case errors.Is(err, convDomain.ErrInvalidMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, reco)
}
